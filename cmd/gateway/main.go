package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"signal_gateway/internal/modules/agents"
	"signal_gateway/internal/modules/bootstrap"
	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/derivatives"
	"signal_gateway/internal/modules/enrichment"
	"signal_gateway/internal/modules/execution"
	"signal_gateway/internal/modules/experiment"
	"signal_gateway/internal/modules/health"
	"signal_gateway/internal/modules/marketdata"
	"signal_gateway/internal/modules/postgres"
	"signal_gateway/internal/modules/store"
	"signal_gateway/internal/modules/webhook"
	"signal_gateway/internal/runner"
	"signal_gateway/pkg/logger"
	"signal_gateway/pkg/tracing"
)

func main() {
	logger.SetServiceName("signal_gateway")
	logger.Init()
	tracing.SetServiceName("signal_gateway")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
		postgres.Module(),
		store.Module(),
		experiment.Module(),
		webhook.Module(),
		marketdata.Module(),
		derivatives.Module(),
		enrichment.Module(),
		bootstrap.Module(),
		agents.Module(),
		execution.Module(),
		health.Module(),
		runner.Module(),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
