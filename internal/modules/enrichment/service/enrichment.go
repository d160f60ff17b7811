package service

import (
	"context"
	"sync"
	"time"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	derivatives "signal_gateway/internal/modules/derivatives/service"
	marketdata "signal_gateway/internal/modules/marketdata/service"
	"signal_gateway/pkg/logger"
)

type PositionStore interface {
	CountOpen(ctx context.Context, symbol string) (int, error)
	ListClosable(ctx context.Context, limit int) ([]models.Position, error)
	MarkClosing(ctx context.Context, positionID int64) (bool, error)
}

type OrderWriter interface {
	InsertOrder(ctx context.Context, o *models.Order) (int64, error)
}

// Result — исход обогащения. Стадии никогда не кидают: внешние отказы
// деградируют в записанную причину, RiskResult заполняется полностью даже
// на отказном пути.
type Result struct {
	Enriched        *models.EnrichedSignal
	RejectionReason string
	QueueUntil      *time.Time
	QueueReason     string
	DecisionOnly    bool
}

// Service собирает рыночный контекст сигнала: приоритет, сессию, ёмкость,
// котировки, деривативы, конфлюэнс.
type Service struct {
	cfg       *config.Config
	market    marketdata.Provider
	deriv     derivatives.Provider
	positions PositionStore
	orders    OrderWriter

	// допуск по ёмкости сериализуем per-symbol, иначе два сигнала съедают
	// один слот
	admission sync.Map // symbol -> *sync.Mutex

	now func() time.Time
}

func New(cfg *config.Config, market marketdata.Provider, deriv derivatives.Provider, positions PositionStore, orders OrderWriter) *Service {
	return &Service{
		cfg:       cfg,
		market:    market,
		deriv:     deriv,
		positions: positions,
		orders:    orders,
		now:       time.Now,
	}
}

// BuildSignalEnrichment — последовательные стадии: отказ или очередь на любой
// стадии коротит остальные. После записанной причины никакая стадия не работает:
// ни fetch-и, ни тем более высвобождение ёмкости от имени мёртвого сигнала.
func (s *Service) BuildSignalEnrichment(ctx context.Context, sig *models.Signal) *Result {
	res := &Result{
		Enriched: &models.EnrichedSignal{
			Risk: models.RiskResult{
				MaxOpen:      s.cfg.MaxOpenPositions,
				MaxPerSymbol: s.cfg.MaxPositionsPerSym,
			},
		},
	}
	risk := &res.Enriched.Risk

	// 1. приоритет — нужен capacity-стадии
	risk.PriorityTotal = PriorityScore(sig.RawPayload)

	// 2. сессия
	s.sessionGate(ctx, sig, res)
	if res.QueueReason != "" {
		// рынок закрыт и очередь предпочтительнее — дальше не работаем
		return res
	}
	if res.RejectionReason != "" {
		return s.rejected(sig, res)
	}

	// 3-4. ёмкость и высвобождение
	s.capacityGate(ctx, sig, res)
	if res.RejectionReason != "" {
		return s.rejected(sig, res)
	}

	// 5. рыночные данные — параллельно, с независимыми таймаутами
	s.fetchMarketData(ctx, sig, res)
	if res.RejectionReason != "" {
		return s.rejected(sig, res)
	}

	// 6. деривативы — best-effort
	s.fetchDerivatives(ctx, sig, res)

	// 7. конфлюэнс
	s.applyConfluence(sig, res)
	if res.RejectionReason != "" {
		return s.rejected(sig, res)
	}
	return res
}

func (s *Service) rejected(sig *models.Signal, res *Result) *Result {
	logger.Info("signal %d rejected at enrichment: %s", sig.ID, res.RejectionReason)
	return res
}

// setReject — первая причина выигрывает.
func setReject(res *Result, reason string) {
	if res.RejectionReason == "" {
		res.RejectionReason = reason
	}
}

func (s *Service) admissionLock(symbol string) *sync.Mutex {
	v, _ := s.admission.LoadOrStore(symbol, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Service) callTimeout() time.Duration {
	if s.cfg.EnrichmentTimeout > 0 {
		return s.cfg.EnrichmentTimeout
	}
	return 8 * time.Second
}
