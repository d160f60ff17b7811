package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	"signal_gateway/pkg/logger"
)

type ExperimentStore interface {
	Insert(ctx context.Context, exp *models.Experiment) (int64, error)
}

type SignalStore interface {
	SetExperiment(ctx context.Context, signalID, experimentID int64) error
}

// Router раздаёт сигналы по вариантам A/B. Назначение детерминированное:
// стабильный хэш идентичности сигнала против настроенного сплита, никакого
// рандома — повторный роутинг того же сигнала даёт тот же вариант.
type Router struct {
	cfg         *config.Config
	experiments ExperimentStore
	signals     SignalStore
}

func NewRouter(cfg *config.Config, experiments ExperimentStore, signals SignalStore) *Router {
	return &Router{cfg: cfg, experiments: experiments, signals: signals}
}

// AssignmentHash — воспроизводимый хэш идентичности для аудита.
func AssignmentHash(symbol, timeframe, sessionID string) string {
	sum := sha256.Sum256([]byte(symbol + ":" + timeframe + ":" + sessionID))
	return hex.EncodeToString(sum[:])
}

// Bucket отображает хэш в [0,100).
func Bucket(assignmentHash string) int {
	raw, err := hex.DecodeString(assignmentHash)
	if err != nil || len(raw) < 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw[:8]) % 100)
}

// Assign — чистая функция выбора варианта: bucket < split => B.
func Assign(assignmentHash string, splitPercentage int) models.Variant {
	if Bucket(assignmentHash) < splitPercentage {
		return models.VariantB
	}
	return models.VariantA
}

func (r *Router) Route(ctx context.Context, sig *models.Signal) (exp *models.Experiment, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Router.Route: %w", err)
		}
	}()

	hash := AssignmentHash(sig.Symbol, sig.Timeframe, sig.TestSessionID)
	exp = &models.Experiment{
		SignalID:        sig.ID,
		Variant:         Assign(hash, r.cfg.SplitPercentage),
		AssignmentHash:  hash,
		SplitPercentage: r.cfg.SplitPercentage,
	}

	expID, err := r.experiments.Insert(ctx, exp)
	if err != nil {
		return nil, err
	}
	// при конфликте Insert возвращает id и вариант уже записанного эксперимента
	exp.ID = expID

	if err := r.signals.SetExperiment(ctx, sig.ID, expID); err != nil {
		// FK добъём при следующем проходе, эксперимент уже записан
		logger.Warn("set experiment fk: %v", err)
	}
	sig.ExperimentID = &expID

	return exp, nil
}
