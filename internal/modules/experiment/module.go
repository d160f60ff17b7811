package experiment

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/experiment/service"
	"signal_gateway/internal/modules/store/service/pg"
)

func Module() fx.Option {
	return fx.Module("experiment",
		fx.Provide(
			func(cfg *config.Config, experiments *pg.Experiments, signals *pg.Signals) *service.Router {
				return service.NewRouter(cfg, experiments, signals)
			},
		),
	)
}
