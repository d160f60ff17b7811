package agents

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/agents/service"
	"signal_gateway/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("agents",
		fx.Provide(
			func(cfg *config.Config) (service.AgentsConfig, error) {
				return service.LoadAgentsConfig(cfg.AgentsFile)
			},
			service.NewOrchestrator,
			func(cfg *config.Config, agentsCfg service.AgentsConfig) *service.Aggregator {
				return service.NewAggregator(agentsCfg, cfg.ApprovalThreshold)
			},
		),
	)
}
