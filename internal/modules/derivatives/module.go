package derivatives

import (
	"go.uber.org/fx"

	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/derivatives/service"
)

func Module() fx.Option {
	return fx.Module("derivatives",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Derivatives.BaseURL, cfg.Derivatives.APIKey)
			},
			func(c *service.Client) service.Provider { return c },
		),
	)
}
