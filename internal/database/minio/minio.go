package minio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"palm-rag/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// NewClient 根据配置创建 MinIO 客户端，不做连通性检查。
func NewClient(cfg *config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("未配置 MinIO 端点")
	}
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""), // 静态凭证。
		Secure: cfg.Secure,                                                // 是否使用 HTTPS。
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}
	return c, nil
}

// GetClient 使用单例模式初始化并返回一个 MinIO 客户端实例。
// 它确保到 MinIO 的连接在整个应用生命周期中只被建立一次。
func GetClient(cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := NewClient(cfg)
		if err != nil {
			initErr = err
			return
		}

		// 初始化时执行简单的健康检查
		if _, err := c.ListBuckets(context.Background()); err != nil {
			initErr = fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
			return
		}

		log.Println("✅ 成功连接到 MinIO!")
		client = c
	})

	return client, initErr
}

// HealthCheck 检查 MinIO 连接的健康状况。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MinIO 客户端未初始化")
	}
	// 尝试列出存储桶以验证连接性和认证。
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	return nil
}

// Archive 把上传的原始文件保存到一个存储桶中。
type Archive struct {
	client *minio.Client
	bucket string

	mu      sync.Mutex
	ensured bool
}

// NewArchive 创建 Archive。存储桶在第一次写入时按需创建。
func NewArchive(c *minio.Client, bucket string) *Archive {
	return &Archive{client: c, bucket: bucket}
}

// Bucket 返回存储桶名称。
func (a *Archive) Bucket() string { return a.bucket }

// EnsureBucket 在存储桶不存在时创建它。
func (a *Archive) EnsureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ensured {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 失败: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", a.bucket, err)
		}
	}
	a.ensured = true
	return nil
}

// ObjectKey 返回文档原始文件的对象 key。
func ObjectKey(documentID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return path.Join("documents", documentID, name)
}

// Put 保存一个文档的原始文件并返回对象 key。
func (a *Archive) Put(ctx context.Context, documentID, fileName, contentType string, data []byte) (string, error) {
	if err := a.EnsureBucket(ctx); err != nil {
		return "", err
	}
	key := ObjectKey(documentID, fileName)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", key, err)
	}
	return key, nil
}

// Remove 删除一个对象，对象不存在时不报错。
func (a *Archive) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", key, err)
	}
	return nil
}
