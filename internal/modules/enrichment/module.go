package enrichment

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/config"
	derivatives "signal_gateway/internal/modules/derivatives/service"
	"signal_gateway/internal/modules/enrichment/service"
	marketdata "signal_gateway/internal/modules/marketdata/service"
	"signal_gateway/internal/modules/store/service/pg"
)

func Module() fx.Option {
	return fx.Module("enrichment",
		fx.Provide(
			func(cfg *config.Config, market marketdata.Provider, deriv derivatives.Provider, positions *pg.Positions, executions *pg.Executions) *service.Service {
				return service.New(cfg, market, deriv, positions, executions)
			},
		),
	)
}
