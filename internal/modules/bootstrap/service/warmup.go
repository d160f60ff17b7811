package service

import (
	"context"
	"sync"

	marketdata "signal_gateway/internal/modules/marketdata/service"
	"signal_gateway/pkg/logger"
)

// Warmuper прогревает кэш котировок по вочлисту на старте: первые сигналы не
// ждут REST, а ws-стрим получает набор символов для подписки.
type Warmuper struct {
	market marketdata.Provider

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewWarmuper(market marketdata.Provider) *Warmuper {
	return &Warmuper{
		market: market,
		sem:    make(chan struct{}, 8),
	}
}

func (w *Warmuper) Warmup(ctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		return
	}

	var wg sync.WaitGroup
	warmed := 0
	var mu sync.Mutex

	for _, sym := range symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sem <- struct{}{}
			defer func() { <-w.sem }()

			if _, err := w.market.GetStockPrice(ctx, sym); err != nil {
				logger.Warn("warmup %s: %v", sym, err)
				return
			}
			mu.Lock()
			warmed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	logger.Info("warmup done: %d/%d symbols", warmed, len(symbols))
}
