package analytics

import (
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.store",
	fx.Provide(
		NewStore,
		func(s *Store) EventStore { return s },
	),
)
