package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"palm-rag/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// NewClient 根据配置创建 Redis 客户端，但不检查连通性。
// Redis 不可用时服务仍需启动并回退到本地会话存储，因此这里不会因为 Ping 失败而返回错误。
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Address()
	if addr == "" {
		return nil, fmt.Errorf("未配置 Redis 地址")
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// GetClient 使用单例模式初始化并返回一个 Redis 客户端实例。
// 启动时的 Ping 失败只记录日志，客户端仍然返回，会话存储会在请求时重新探测。
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb, err := NewClient(cfg)
		if err != nil {
			initErr = err
			return
		}

		// 使用 Ping 检查连接是否成功。
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("⚠️ 暂时无法连接到 Redis (%s)，会话将使用本地内存: %v", cfg.Address(), err)
		} else {
			log.Println("✅ 成功连接到 Redis!")
		}
		client = rdb
	})

	return client, initErr
}

// Close 安全地关闭单例的 Redis 连接。
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck 检查 Redis 连接的健康状况。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return client.Ping(ctx).Err()
}
