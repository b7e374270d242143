package reconcile

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *ReportCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReportCache(client, time.Minute)
}

func TestReportCacheReadThrough(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (ReconciliationReport, error) {
		loads++
		return ReconciliationReport{OrderID: 1, TotalOrdered: 3, CompletionPercentage: 50}, nil
	}

	key, err := cache.Key(ctx, 1)
	require.NoError(t, err)

	first, err := cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.Equal(t, 50.0, first.CompletionPercentage)
	require.Equal(t, 1, loads)

	second, err := cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.Equal(t, first.OrderID, second.OrderID)
	require.Equal(t, 1, loads)
}

func TestReportCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.Key(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.Key(ctx, 1)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestReportCacheNilClientFallsThrough(t *testing.T) {
	var cache *ReportCache
	ctx := context.Background()

	loads := 0
	report, err := cache.Fetch(ctx, "any", func(ctx context.Context) (ReconciliationReport, error) {
		loads++
		return ReconciliationReport{OrderID: 9}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), report.OrderID)
	require.Equal(t, 1, loads)
	require.NoError(t, cache.Bump(ctx))
}
