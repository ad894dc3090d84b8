package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 用于配置LRU缓存的行为。
type CacheConfig struct {
	// Capacity 是缓存的最大元素数量。如果为0，则不限制数量。
	Capacity int
	// MaxWeight 是缓存中所有元素的最大权重总和。如果为0，则不限制权重。
	MaxWeight int
	// TTL 是元素自最后一次写入起的存活时间。如果为0，则元素永不过期。
	TTL time.Duration
	// Now 返回当前时间，为空时使用 time.Now，测试时可替换。
	Now func() time.Time
}

type lruEntry[K comparable, V any] struct {
	key        K
	value      V
	weight     int
	expiration time.Time
}

// LRUCache 是一个支持泛型、容量/权重限制和 TTL 的线程安全 LRU 缓存。
type LRUCache[K comparable, V any] struct {
	config        CacheConfig
	ll            *list.List
	items         map[K]*list.Element
	currentWeight int
	mu            sync.Mutex
}

// NewLRU 使用指定的配置创建一个LRU缓存实例。
func NewLRU[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	// 至少要有一个限制条件
	if config.Capacity <= 0 && config.MaxWeight <= 0 {
		return nil, fmt.Errorf("必须设置 Capacity 或 MaxWeight 中的至少一个")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		items:  make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值，并将其标记为最近使用。过期的元素会被移除。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*lruEntry[K, V]).value, true
}

// Put 添加或覆盖一个键值对，并指定其权重。基于容量淘汰时 weight 传 1 即可。
func (c *LRUCache[K, V]) Put(key K, value V, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, weight)
}

// Update 在持锁状态下读取旧值并写入 fn 的返回值，保证读改写的原子性。
// fn 的 ok 参数表示旧值是否存在（且未过期）。
func (c *LRUCache[K, V]) Update(key K, fn func(old V, ok bool) (V, int)) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var old V
	e, ok := c.lookup(key)
	if ok {
		old = e.Value.(*lruEntry[K, V]).value
	}
	value, weight := fn(old, ok)
	c.set(key, value, weight)
	return value
}

// GetOrCreate 返回已有的值；不存在时调用 create 创建并写入。
// 与 Update 不同，命中时不会刷新 TTL。
func (c *LRUCache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookup(key); ok {
		c.ll.MoveToFront(e)
		return e.Value.(*lruEntry[K, V]).value
	}
	value := create()
	c.set(key, value, 1)
	return value
}

// Delete 删除指定键，返回删除前该键是否存在（且未过期）。
func (c *LRUCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		return false
	}
	c.removeElement(e)
	return true
}

// Len 返回当前缓存中的条目数量，可能包含尚未被动淘汰的过期条目。
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Weight 返回当前缓存中所有元素的总权重。
func (c *LRUCache[K, V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentWeight
}

// lookup 查找未过期的元素，过期的会被顺带移除。此方法假设已持有锁。
func (c *LRUCache[K, V]) lookup(key K) (*list.Element, bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := e.Value.(*lruEntry[K, V])
	if c.config.TTL > 0 && c.config.Now().After(ent.expiration) {
		c.removeElement(e)
		return nil, false
	}
	return e, true
}

// set 写入元素并按需淘汰。此方法假设已持有锁。
func (c *LRUCache[K, V]) set(key K, value V, weight int) {
	if e, ok := c.items[key]; ok {
		ent := e.Value.(*lruEntry[K, V])
		c.currentWeight += weight - ent.weight
		ent.weight = weight
		ent.value = value
		ent.expiration = c.expiry()
		c.ll.MoveToFront(e)
	} else {
		e := c.ll.PushFront(&lruEntry[K, V]{key: key, value: value, weight: weight, expiration: c.expiry()})
		c.items[key] = e
		c.currentWeight += weight
	}

	// 一个大的新元素可能需要淘汰多个旧元素，但最新写入的元素总会保留。
	for c.isOverCapacity() && c.ll.Len() > 1 {
		c.removeElement(c.ll.Back())
	}
}

func (c *LRUCache[K, V]) expiry() time.Time {
	if c.config.TTL <= 0 {
		return time.Time{}
	}
	return c.config.Now().Add(c.config.TTL)
}

// isOverCapacity 检查缓存是否超出容量或权重限制。此方法假设已持有锁。
func (c *LRUCache[K, V]) isOverCapacity() bool {
	if c.config.Capacity > 0 && c.ll.Len() > c.config.Capacity {
		return true
	}
	return c.config.MaxWeight > 0 && c.currentWeight > c.config.MaxWeight
}

// removeElement 从链表和map中移除元素。此方法假设已持有锁。
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*lruEntry[K, V])
	delete(c.items, ent.key)
	c.currentWeight -= ent.weight
}
