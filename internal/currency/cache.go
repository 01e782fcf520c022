// backend-erp/internal/currency/cache.go
package currency

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCache - хранилище курсов по ключу "BASE-TARGET". Кэш внедряется
// в Converter снаружи, чтобы тесты могли подменять и сбрасывать его.
type RateCache interface {
	Get(pair string) (float64, bool)
	Set(pair string, rate float64)
	Clear()
}

type memoryEntry struct {
	rate    float64
	expires time.Time
}

// MemoryCache - потокобезопасный кэш курсов в памяти процесса.
// Нулевой TTL означает "жить до явного сброса".
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(pair string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[pair]
	if !ok {
		return 0, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return 0, false
	}
	return e.rate, true
}

func (c *MemoryCache) Set(pair string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{rate: rate}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}
	c.entries[pair] = e
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

const redisRatesKey = "exchange_rates"

// RedisCache хранит курсы в одном Redis-хэше, чтобы кэш переживал
// рестарты и был общим для всех экземпляров приложения.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	ctx context.Context
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, ctx: context.Background()}
}

func (c *RedisCache) Get(pair string) (float64, bool) {
	val, err := c.rdb.HGet(c.ctx, redisRatesKey, pair).Result()
	if err != nil {
		return 0, false
	}
	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

func (c *RedisCache) Set(pair string, rate float64) {
	c.rdb.HSet(c.ctx, redisRatesKey, pair, strconv.FormatFloat(rate, 'f', -1, 64))
	if c.ttl > 0 {
		c.rdb.Expire(c.ctx, redisRatesKey, c.ttl)
	}
}

func (c *RedisCache) Clear() {
	c.rdb.Del(c.ctx, redisRatesKey)
}
