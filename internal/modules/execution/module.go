package execution

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/execution/service"
	"signal_gateway/internal/modules/store/service/pg"
)

func Module() fx.Option {
	return fx.Module("execution",
		fx.Provide(
			service.NewRuleEngine,
			func(cfg *config.Config, executions *pg.Executions, positions *pg.Positions) *service.Executor {
				return service.NewExecutor(cfg, executions, positions)
			},
		),
	)
}
