package tokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/youcodecowboy/fantasy-hockey-analysis/containers"
)

func TestRedisLock(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a redis container")
	}

	rc := containers.NewRedisContainer()
	defer rc.Shutdown()

	client := redis.NewClient(&redis.Options{Addr: rc.Addr()})
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client, 2*time.Second)

	t.Run("mutual exclusion", func(t *testing.T) {
		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := lock.Lock(ctx, "token-refresh:a")
				require.NoError(t, err)
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(20 * time.Millisecond)
				inside.Add(-1)
				unlock()
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), maxInside.Load())

		exists, err := client.Exists(ctx, "token-refresh:a").Result()
		require.NoError(t, err)
		require.Zero(t, exists)
	})

	t.Run("unlock leaves a lock taken by someone else", func(t *testing.T) {
		short := NewRedisLock(client, 100*time.Millisecond)
		unlock, err := short.Lock(ctx, "token-refresh:b")
		require.NoError(t, err)

		// Let it expire and have another holder take it.
		time.Sleep(150 * time.Millisecond)
		require.NoError(t, client.Set(ctx, "token-refresh:b", "other", time.Minute).Err())

		unlock()
		v, err := client.Get(ctx, "token-refresh:b").Result()
		require.NoError(t, err)
		require.Equal(t, "other", v)
	})

	t.Run("gives up after ttl", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "token-refresh:c", "held", time.Minute).Err())

		short := NewRedisLock(client, 100*time.Millisecond)
		_, err := short.Lock(ctx, "token-refresh:c")
		require.Error(t, err)
	})
}
