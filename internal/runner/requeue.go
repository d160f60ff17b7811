package runner

import (
	"context"
	"time"

	"signal_gateway/internal/modules/store/service/pg"
	"signal_gateway/pkg/logger"
)

const (
	requeueInterval = time.Minute
	requeueBatch    = 50
)

// requeueLoop перечитывает отложенные сигналы, чьё queued_until прошло,
// и возвращает их в пайплайн. Рынок мог так и не открыться — тогда сигнал
// встанет в очередь повторно с новым временем.
func requeueLoop(ctx context.Context, signals *pg.Signals, p *Pipeline) {
	ticker := time.NewTicker(requeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := signals.DueQueued(ctx, time.Now(), requeueBatch)
			if err != nil {
				logger.Warn("requeue scan: %v", err)
				continue
			}
			for _, sig := range due {
				p.Process(ctx, sig)
			}
		}
	}
}
