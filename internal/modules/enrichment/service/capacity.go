package service

import (
	"context"
	"time"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/logger"
)

// capacityGate — проверка лимитов открытых позиций с опциональным высвобождением.
// Допуск сериализован per-symbol; session/stale отказы имеют приоритет и не
// перезаписываются.
func (s *Service) capacityGate(ctx context.Context, sig *models.Signal, res *Result) {
	risk := &res.Enriched.Risk

	lock := s.admissionLock(sig.Symbol)
	lock.Lock()
	defer lock.Unlock()

	total, err := s.positions.CountOpen(ctx, "")
	if err != nil {
		// счётчик недоступен — допуск без гейта хуже ложного отказа не делает,
		// бумажная торговля переживёт
		logger.Warn("count open positions: %v", err)
		return
	}
	perSymbol, err := s.positions.CountOpen(ctx, sig.Symbol)
	if err != nil {
		logger.Warn("count open positions for %s: %v", sig.Symbol, err)
		perSymbol = 0
	}
	risk.OpenPositions = total
	risk.OpenForSymbol = perSymbol

	effective := total
	// высвобождение только ради живого сигнала
	if res.RejectionReason == "" &&
		total >= s.cfg.MaxOpenPositions &&
		s.cfg.ReplacementEnabled &&
		risk.PriorityTotal >= s.cfg.ReplacementMinPrio {
		freed := s.reclaim(ctx, total-s.cfg.MaxOpenPositions+1, risk)
		effective = total - freed
	}

	if res.RejectionReason == "" {
		if effective >= s.cfg.MaxOpenPositions {
			setReject(res, models.RejectMaxOpenPositions)
		} else if perSymbol >= s.cfg.MaxPositionsPerSym {
			setReject(res, models.RejectMaxPerSymbol)
		}
	}
}

// reclaim закрывает старейшие позиции, которые либо почти у цели, либо
// состарились с низкой прибылью. Best-effort и с кэпом: останавливаемся как
// только хватает слотов или кандидаты кончились.
func (s *Service) reclaim(ctx context.Context, needed int, risk *models.RiskResult) int {
	if needed <= 0 {
		return 0
	}

	candidates, err := s.positions.ListClosable(ctx, s.cfg.MaxOpenPositions)
	if err != nil {
		logger.Warn("list closable positions: %v", err)
		return 0
	}

	freed := 0
	for _, pos := range candidates {
		if freed >= needed {
			break
		}

		reason := s.closableReason(pos)
		if reason == "" {
			continue
		}

		ok, err := s.positions.MarkClosing(ctx, pos.ID)
		if err != nil {
			logger.Warn("mark closing %d: %v", pos.ID, err)
			continue
		}
		if !ok {
			// кто-то уже закрыл — слот и так освободился не нами
			continue
		}

		// синтетический закрывающий ордер
		closeSide := models.DirectionShort
		if pos.Side == models.DirectionShort {
			closeSide = models.DirectionLong
		}
		if _, err := s.orders.InsertOrder(ctx, &models.Order{
			Symbol: pos.Symbol,
			Side:   closeSide,
			Qty:    pos.Qty,
			Price:  pos.Current,
			Kind:   "close",
			Paper:  s.cfg.PaperTrading,
		}); err != nil {
			logger.Warn("insert closing order for %d: %v", pos.ID, err)
		}

		risk.CapacityActions = append(risk.CapacityActions, models.CapacityAction{
			PositionID: pos.ID,
			Symbol:     pos.Symbol,
			Reason:     reason,
		})
		freed++
	}
	return freed
}

func (s *Service) closableReason(pos models.Position) string {
	if pos.TargetProgress() >= s.cfg.NearTargetProgress {
		return "near_target"
	}
	age := s.now().Sub(pos.OpenedAt)
	if age > time.Duration(s.cfg.AgedPositionHours*float64(time.Hour)) &&
		pos.ProfitPct() < s.cfg.AgedLowProfitPct {
		return "aged_low_profit"
	}
	return ""
}
