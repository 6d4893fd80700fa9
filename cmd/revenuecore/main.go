package main

import (
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"publisher-revenuecore/pkg/config"
	"publisher-revenuecore/pkg/db"
	"publisher-revenuecore/pkg/gen"
	"publisher-revenuecore/pkg/logger"
	"publisher-revenuecore/pkg/redis"
	"publisher-revenuecore/services/analytics"
	"publisher-revenuecore/services/dashboard"
	"publisher-revenuecore/services/paymentmethod"
	"publisher-revenuecore/services/payout"
	"publisher-revenuecore/services/project"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		fx.Provide(
			provideTracerProvider,
		),
		analytics.Module,
		project.Module,
		paymentmethod.Module,
		payout.Module,
		dashboard.Module,
		fx.Invoke(ready),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func ready(m *dashboard.Manager, p *payout.Service, pm *paymentmethod.Service, cfg *config.Config) {
	zap.L().Info("revenue core ready",
		zap.String("app", cfg.AppName),
		zap.String("version", cfg.AppVersion),
	)
}
