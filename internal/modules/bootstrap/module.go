package bootstrap

import (
	"context"

	"go.uber.org/fx"

	bootstrap "signal_gateway/internal/modules/bootstrap/service"
	"signal_gateway/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			bootstrap.NewWarmuper,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wu *bootstrap.Warmuper) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go wu.Warmup(context.Background(), cfg.WarmupSymbols)
					return nil
				},
			})
		}),
	)
}
