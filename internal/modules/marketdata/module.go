package marketdata

import (
	"context"
	"time"

	"go.uber.org/fx"

	"signal_gateway/internal/modules/config"
	health "signal_gateway/internal/modules/health/service"
	"signal_gateway/internal/modules/marketdata/service"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			func() *service.QuoteCache {
				return service.NewQuoteCache(30 * time.Second)
			},
			func(cfg *config.Config, cache *service.QuoteCache) *service.Client {
				return service.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cache)
			},
			func(c *service.Client) service.Provider { return c },
			func(cfg *config.Config, cache *service.QuoteCache, state *health.State) *service.PriceStream {
				return service.NewPriceStream(cfg.MarketData.StreamURL, cache, state.SetWSConnected)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, stream *service.PriceStream, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go stream.Run(ctx)
					return nil
				},
			})
		}),
	)
}
