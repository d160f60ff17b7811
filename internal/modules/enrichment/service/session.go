package service

import (
	"context"
	"time"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/logger"
)

// sessionGate — открыт ли рынок для сигнала. Порядок решений при закрытом рынке:
//  1. тест/байпас — пропускаем с флагом;
//  2. сигнал старше max-age — reject signal_stale;
//  3. включён decision-only — пропускаем с флагом, ордера не будет;
//  4. известен next open — queue market_closed;
//  5. иначе reject market_closed.
func (s *Service) sessionGate(ctx context.Context, sig *models.Signal, res *Result) {
	risk := &res.Enriched.Risk

	hctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	hours, err := s.market.GetMarketHours(hctx)
	if err != nil {
		// часы недоступны — считаем рынок открытым и фиксируем это в аудите;
		// цена всё равно обязана найтись, иначе сигнал отсеется дальше
		logger.Warn("market hours unavailable: %v", err)
		risk.MarketOpen = true
		risk.Session = models.SessionRegular
		return
	}

	risk.Session = hours.Session
	risk.MarketOpen = s.sessionAllowed(hours)
	if risk.MarketOpen {
		return
	}

	if sig.IsTest {
		risk.TestBypass = true
		risk.MarketOpen = true
		return
	}

	maxAge := time.Duration(s.cfg.MaxSignalAgeMinutes) * time.Minute
	if s.now().Sub(sig.Timestamp) > maxAge {
		setReject(res, models.RejectSignalStale)
		return
	}

	if s.cfg.DecisionOnlyClosed {
		res.DecisionOnly = true
		risk.DecisionOnly = true
		return
	}

	if !hours.NextOpen.IsZero() && hours.NextOpen.After(s.now()) {
		until := hours.NextOpen
		res.QueueUntil = &until
		res.QueueReason = models.QueueReasonMarketClosed
		return
	}

	setReject(res, models.RejectMarketClosed)
}

// sessionAllowed — regular всегда торгуем; pre/post по флагам; после закрытия
// действует grace-окно.
func (s *Service) sessionAllowed(hours *models.MarketHours) bool {
	if hours.IsOpen {
		return true
	}
	switch hours.Session {
	case models.SessionPremarket:
		return s.cfg.AllowPremarket
	case models.SessionAfter:
		return s.cfg.AllowAfterHours
	}

	grace := time.Duration(s.cfg.CloseGraceMinutes) * time.Minute
	if !hours.NextClose.IsZero() {
		sinceClose := s.now().Sub(hours.NextClose)
		if sinceClose >= 0 && sinceClose <= grace {
			return true
		}
	}
	return false
}
