package runner

import (
	"context"

	"go.uber.org/fx"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	health "signal_gateway/internal/modules/health/service"
	"signal_gateway/internal/modules/store/service/pg"
	"signal_gateway/internal/notify"
	"signal_gateway/pkg/logger"
)

func newNotifier(cfg *config.Config, positions *pg.Positions) notify.Notifier {
	if cfg.Telegram.Token == "" {
		return notify.NewStdout()
	}
	t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, positions)
	if err != nil {
		logger.Warn("telegram notifier unavailable, falling back to stdout: %v", err)
		return notify.NewStdout()
	}
	return t
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newNotifier,
			NewPipeline,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			p *Pipeline,
			signals *pg.Signals,
			in <-chan *models.Signal,
			state *health.State,
			n notify.Notifier,
		) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if t, ok := n.(*notify.Telegram); ok {
						if err := t.Start(ctx); err != nil {
							logger.Warn("telegram polling: %v", err)
						}
					}
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case sig := <-in:
								p.Process(ctx, sig)
							}
						}
					}()
					go requeueLoop(ctx, signals, p)
					state.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					state.SetReady(false)
					cancel()
					return nil
				},
			})
		}),
	)
}
