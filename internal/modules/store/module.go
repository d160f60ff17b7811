package store

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/store/service/pg"
)

func Module() fx.Option {
	return fx.Module("store",
		fx.Provide(
			pg.NewSignals,
			pg.NewExperiments,
			pg.NewPositions,
			pg.NewExecutions,
			pg.NewWebhookEvents,
		),
	)
}
