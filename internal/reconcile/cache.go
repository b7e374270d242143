package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reconcile:version"

// ReportCache is a read-through cache for reconciliation reports. It is
// constructed by the caller and passed in explicitly; the engine itself never
// holds process-wide state, so cache lifetime stays testable. Invalidation is
// a global version bump: every link or delivery mutation calls Bump and all
// older keys go cold.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache instantiates the cache helper.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Key composes the versioned cache key for one order's report.
func (c *ReportCache) Key(ctx context.Context, orderID int64) (string, error) {
	if c == nil || c.client == nil {
		return fmt.Sprintf("reconcile:report:%d", orderID), nil
	}
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reconcile:report:%d:%d", orderID, ver), nil
}

func (c *ReportCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Fetch loads a cached report or populates it using the loader.
func (c *ReportCache) Fetch(ctx context.Context, key string, loader func(context.Context) (ReconciliationReport, error)) (ReconciliationReport, error) {
	if loader == nil {
		return ReconciliationReport{}, errors.New("reconcile: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var report ReconciliationReport
		if err := json.Unmarshal(payload, &report); err == nil {
			return report, nil
		}
		// Corrupt entry falls through to a fresh load.
	} else if !errors.Is(err, redis.Nil) {
		return ReconciliationReport{}, err
	}
	report, err := loader(ctx)
	if err != nil {
		return ReconciliationReport{}, err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return ReconciliationReport{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return ReconciliationReport{}, err
	}
	return report, nil
}

// Bump invalidates every cached report by incrementing the global version.
func (c *ReportCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, "reconcile.bump", strconv.FormatInt(ver, 10)).Err()
}
