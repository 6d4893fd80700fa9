package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"publisher-revenuecore/pkg/rediskey"
	"publisher-revenuecore/services/analytics"
)

// SnapshotStore persists the last good report per publisher to redis so a
// restarted dashboard can warm its stale-but-valid view. Writes are
// best-effort: losing a snapshot only costs a recompute.
type SnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotStore(rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

func (s *SnapshotStore) Save(publisherID string, report *analytics.RevenueReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		zap.L().Warn("failed to marshal report snapshot", zap.String("publisher_id", publisherID), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		key := rediskey.BuildReportKey(publisherID)
		if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			zap.L().Warn("failed to persist report snapshot", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *SnapshotStore) Load(ctx context.Context, publisherID string) (*analytics.RevenueReport, error) {
	payload, err := s.rdb.Get(ctx, rediskey.BuildReportKey(publisherID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var report analytics.RevenueReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
