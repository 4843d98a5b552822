package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TTLCache 进程内 LRU 缓存，带逐项过期时间。
// 作为 Redis 前面的 L1 热缓存：好友列表、头像底色这类读多写少
// 且允许短暂陈旧的数据走这里，减少一跳网络。
type TTLCache[V any] struct {
	inner *lru.Cache[string, entry[V]]
	ttl   time.Duration
}

type entry[V any] struct {
	value    V
	expireAt time.Time
}

// NewTTLCache 创建缓存，size 为条目上限，ttl 为逐项过期时间。
func NewTTLCache[V any](size int, ttl time.Duration) (*TTLCache[V], error) {
	inner, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{inner: inner, ttl: ttl}, nil
}

// Get 读取缓存，过期项视为未命中并顺手移除。
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.inner.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expireAt) {
		c.inner.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set 写入缓存
func (c *TTLCache[V]) Set(key string, value V) {
	c.inner.Add(key, entry[V]{
		value:    value,
		expireAt: time.Now().Add(c.ttl),
	})
}

// Remove 移除缓存项（写操作后失效）
func (c *TTLCache[V]) Remove(key string) {
	c.inner.Remove(key)
}

// Purge 清空缓存
func (c *TTLCache[V]) Purge() {
	c.inner.Purge()
}
