package dashboard

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"publisher-revenuecore/pkg/config"
)

var Module = fx.Module("dashboard.sync",
	fx.Provide(
		provideSnapshotStore,
		NewManager,
	),
)

func provideSnapshotStore(rdb *redis.Client, cfg *config.Config) *SnapshotStore {
	return NewSnapshotStore(rdb, cfg.Report.SnapshotTTL)
}
