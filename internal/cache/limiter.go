package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter считает запросы по ключу в фиксированном окне.
type Limiter interface {
	// Allow регистрирует попытку и сообщает, укладывается ли она в limit за window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter — общий для всех реплик счётчик на INCR + PEXPIRE.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	script *redis.Script
}

// NewRedisLimiter возвращает лимитер с ключами <prefix>rl:<key>.
func NewRedisLimiter(rdb *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix + "rl:",
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	const op = "cache.RedisLimiter.Allow"

	if key == "" || limit <= 0 || window <= 0 {
		return true, nil
	}

	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	allowed, err := l.script.Run(ctx, l.rdb, []string{l.prefix + key}, ttl, limit).Int64()
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}

	return allowed == 1, nil
}

// MemoryLimiter — счётчики в памяти процесса для запуска без Redis.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*rateBucket), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if key == "" || limit <= 0 || window <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.windowEnd) {
		l.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		return true, nil
	}

	if b.count >= limit {
		return false, nil
	}

	b.count++
	return true, nil
}

// Sweep удаляет истёкшие окна; вызывается фоновой задачей.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for k, b := range l.buckets {
		if now.After(b.windowEnd) {
			delete(l.buckets, k)
			removed++
		}
	}

	return removed
}
