package webhook

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/store/service/pg"
	"signal_gateway/internal/modules/webhook/service"

	experiment "signal_gateway/internal/modules/experiment/service"
)

func newSignalsChan() chan *models.Signal {
	return make(chan *models.Signal, 256)
}
func asSendOnlySignals(ch chan *models.Signal) chan<- *models.Signal { return ch }
func asRecvOnlySignals(ch chan *models.Signal) <-chan *models.Signal { return ch }

func newMux(h *service.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webhook", h)
	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, h *service.Handler) {
	addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("webhook",
		fx.Provide(
			newSignalsChan,
			asSendOnlySignals,
			asRecvOnlySignals,
			func(cfg *config.Config, signals *pg.Signals, router *experiment.Router, events *pg.WebhookEvents, out chan<- *models.Signal) *service.Handler {
				return service.NewHandler(cfg, signals, router, events, out)
			},
		),
		fx.Invoke(RunHTTP),
	)
}
