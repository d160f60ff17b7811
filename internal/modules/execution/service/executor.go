package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	"signal_gateway/pkg/logger"
)

type ShadowWriter interface {
	InsertShadow(ctx context.Context, st *models.ShadowTrade) (int64, error)
	InsertOrder(ctx context.Context, o *models.Order) (int64, error)
}

type PositionOpener interface {
	Open(ctx context.Context, pos *models.Position) (int64, error)
}

// Executor фиксирует одобренные сигналы: shadow-трейд всегда, бумажный ордер
// и позиция — если исполнение не decision-only и включён paper trading.
// Живых денег здесь нет.
type Executor struct {
	cfg       *config.Config
	writer    ShadowWriter
	positions PositionOpener
}

func NewExecutor(cfg *config.Config, writer ShadowWriter, positions PositionOpener) *Executor {
	return &Executor{cfg: cfg, writer: writer, positions: positions}
}

// Approval — параметры одобренного входа.
type Approval struct {
	Signal       *models.Signal
	ExperimentID int64
	EntryPrice   float64
	Confidence   float64
	DecisionOnly bool
}

// Execute пишет shadow-трейд и, если разрешено, открывает бумажную позицию.
// Отказ записи ордера не откатывает shadow-трейд: shadow первичен для A/B-учёта.
func (e *Executor) Execute(ctx context.Context, ap Approval) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executor.Execute: %w", err)
		}
	}()

	sig := ap.Signal
	st := &models.ShadowTrade{
		SignalID:     sig.ID,
		ExperimentID: ap.ExperimentID,
		Symbol:       sig.Symbol,
		Side:         sig.Direction,
		EntryPrice:   ap.EntryPrice,
		Confidence:   ap.Confidence,
		DecisionOnly: ap.DecisionOnly,
	}
	if _, err = e.writer.InsertShadow(ctx, st); err != nil {
		return err
	}

	if ap.DecisionOnly || !e.cfg.PaperTrading {
		return nil
	}

	order := &models.Order{
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Side:     sig.Direction,
		Qty:      e.cfg.OrderQty,
		Price:    ap.EntryPrice,
		Kind:     "entry",
		Paper:    true,
	}
	if _, err = e.writer.InsertOrder(ctx, order); err != nil {
		return err
	}

	pos := &models.Position{
		Symbol:   sig.Symbol,
		Side:     sig.Direction,
		Qty:      e.cfg.OrderQty,
		Entry:    ap.EntryPrice,
		Target:   targetPrice(sig, ap.EntryPrice),
		Current:  ap.EntryPrice,
		OpenedAt: time.Now(),
	}
	if _, err = e.positions.Open(ctx, pos); err != nil {
		return err
	}
	logger.Info("бумажная позиция %d: %s %s qty=%.2f @ %.2f", pos.ID, sig.Symbol, sig.Direction, pos.Qty, ap.EntryPrice)
	return nil
}

// targetPrice берёт цель из payload источника, иначе 1% от входа по стороне.
func targetPrice(sig *models.Signal, entry float64) float64 {
	if len(sig.RawPayload) > 0 {
		var p map[string]any
		if err := sonic.Unmarshal(sig.RawPayload, &p); err == nil {
			for _, key := range []string{"target", "target_price", "tp"} {
				if v, ok := p[key].(float64); ok && v > 0 {
					return v
				}
			}
		}
	}
	if sig.Direction == models.DirectionShort {
		return entry * 0.99
	}
	return entry * 1.01
}
