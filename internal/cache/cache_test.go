package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMemoryLimiter_WindowAndReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "attempt %d", i+1)
	}

	ok, _ := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.False(t, ok)

	// Другой ключ считается отдельно.
	ok, _ = l.Allow(ctx, "5.6.7.8", 3, time.Minute)
	require.True(t, ok)

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.True(t, ok)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Now()
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a", 1, time.Second)
	_, _ = l.Allow(context.Background(), "b", 1, time.Hour)

	now = now.Add(2 * time.Second)
	require.Equal(t, 1, l.Sweep())
	require.Len(t, l.buckets, 1)
}

func TestMemoryLimiter_DisabledValues(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter()
	ok, err := l.Allow(context.Background(), "", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = l.Allow(context.Background(), "k", 0, time.Minute)
	require.True(t, ok)
}

// startRedis поднимает Redis в контейнере (только при GO_TEST_INTEGRATION).
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb, err := NewRedisClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb
}

func TestIntegration_StateStore_SingleUse(t *testing.T) {
	rdb := startRedis(t)
	st := NewStateStore(rdb, "test:")
	ctx := context.Background()

	state := uuid.NewString()
	require.NoError(t, st.Save(ctx, state, time.Minute))

	ok, err := st.Consume(ctx, state)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.Consume(ctx, state)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.Consume(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_RedisLimiter(t *testing.T) {
	rdb := startRedis(t)
	l := NewRedisLimiter(rdb, "test:")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.Allow(ctx, "ip", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisClient(context.Background(), "not-a-url://")
	require.Error(t, err)
}
