package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/db"
)

// Signals implement db store for inbound signals.
type Signals struct {
	db *db.PgTxManager
}

func NewSignals(m *db.PgTxManager) *Signals {
	return &Signals{db: m}
}

// Insert сохраняет сигнал в pending и возвращает id.
func (s *Signals) Insert(ctx context.Context, sig *models.Signal) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.Insert: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO signals
				(signal_hash, symbol, direction, timeframe, event_ts, status,
				 raw_payload, is_test, test_session_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
			RETURNING id`,
			sig.Hash, sig.Symbol, string(sig.Direction), sig.Timeframe, sig.Timestamp,
			string(models.StatusPending), sig.RawPayload, sig.IsTest, sig.TestSessionID,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	sig.ID = id
	sig.Status = models.StatusPending
	return id, nil
}

// RecentExists — проверка дедупликации: был ли такой же сигнал в окне.
// Тестовый трафик живёт в своей партиции (is_test).
func (s *Signals) RecentExists(ctx context.Context, symbol string, direction models.Direction, timeframe string, isTest bool, window time.Duration) (found bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.RecentExists: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT EXISTS(
				SELECT 1 FROM signals
				WHERE symbol = $1 AND direction = $2 AND timeframe = $3
				  AND is_test = $4 AND created_at > now() - $5::interval
			)`,
			symbol, string(direction), timeframe, isTest,
			fmt.Sprintf("%d seconds", int(window.Seconds())),
		)
		return row.Scan(&found)
	})
	return found, err
}

// UpdateStatus двигает state machine; недопустимый переход — ошибка программиста.
func (s *Signals) UpdateStatus(ctx context.Context, signalID int64, status models.SignalStatus, rejectionReason string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.UpdateStatus: %w", err)
		}
	}()

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx, `
			UPDATE signals
			SET status = $2, rejection_reason = NULLIF($3, ''),
			    processing_attempts = processing_attempts + 1
			WHERE id = $1 AND status IN ('pending', 'queued')`,
			signalID, string(status), rejectionReason,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("signal %d: no valid transition to %s", signalID, status)
		}
		return nil
	})
}

// DueQueued — отложенные сигналы, чьё время пришло; перечитываются пайплайном.
func (s *Signals) DueQueued(ctx context.Context, now time.Time, limit int) (out []*models.Signal, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.DueQueued: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, `
			SELECT id, signal_hash, symbol, direction, timeframe, event_ts, status,
			       raw_payload, is_test, test_session_id, experiment_id, processing_attempts
			FROM signals
			WHERE status = 'queued' AND queued_until <= $1
			ORDER BY queued_until ASC
			LIMIT $2`,
			now, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var sig models.Signal
			var direction, status string
			if err := rows.Scan(&sig.ID, &sig.Hash, &sig.Symbol, &direction, &sig.Timeframe,
				&sig.Timestamp, &status, &sig.RawPayload, &sig.IsTest, &sig.TestSessionID,
				&sig.ExperimentID, &sig.ProcessingAttempts); err != nil {
				return err
			}
			sig.Direction = models.Direction(direction)
			sig.Status = models.SignalStatus(status)
			out = append(out, &sig)
		}
		return rows.Err()
	})
	return out, err
}

// Queue откладывает сигнал до открытия рынка. Повторная постановка уже
// отложенного сигнала допустима: рынок мог не открыться к расчётному времени.
func (s *Signals) Queue(ctx context.Context, signalID int64, until time.Time, reason string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.Queue: %w", err)
		}
	}()

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx, `
			UPDATE signals
			SET status = 'queued', queued_until = $2, queue_reason = $3
			WHERE id = $1 AND status IN ('pending', 'queued')`,
			signalID, until, reason,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("signal %d: terminal status, cannot queue", signalID)
		}
		return nil
	})
}

// SetExperiment проставляет FK после роутинга.
func (s *Signals) SetExperiment(ctx context.Context, signalID, experimentID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Signals.SetExperiment: %w", err)
		}
	}()

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`UPDATE signals SET experiment_id = $2 WHERE id = $1`,
			signalID, experimentID,
		)
		return err
	})
}
