package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/db"
)

// Experiments implement db store: одно A/B назначение на сигнал, без мутаций.
type Experiments struct {
	db *db.PgTxManager
}

func NewExperiments(m *db.PgTxManager) *Experiments {
	return &Experiments{db: m}
}

func (e *Experiments) Insert(ctx context.Context, exp *models.Experiment) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Experiments.Insert: %w", err)
		}
	}()

	err = e.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO experiments (signal_id, variant, assignment_hash, split_percentage, created_at)
			VALUES ($1,$2,$3,$4,now())
			ON CONFLICT (signal_id) DO UPDATE SET signal_id = experiments.signal_id
			RETURNING id, variant`,
			exp.SignalID, string(exp.Variant), exp.AssignmentHash, exp.SplitPercentage,
		)
		var variant string
		if err := row.Scan(&id, &variant); err != nil {
			return err
		}
		// при повторе (retry) возвращаем уже записанный вариант
		exp.Variant = models.Variant(variant)
		return nil
	})
	if err != nil {
		return 0, err
	}
	exp.ID = id
	return id, nil
}

func (e *Experiments) GetBySignal(ctx context.Context, signalID int64) (exp *models.Experiment, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Experiments.GetBySignal: %w", err)
		}
	}()

	err = e.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT id, signal_id, variant, assignment_hash, split_percentage, created_at
			FROM experiments WHERE signal_id = $1`,
			signalID,
		)
		var out models.Experiment
		var variant string
		if err := row.Scan(&out.ID, &out.SignalID, &variant, &out.AssignmentHash,
			&out.SplitPercentage, &out.CreatedAt); err != nil {
			return err
		}
		out.Variant = models.Variant(variant)
		exp = &out
		return nil
	})
	return exp, err
}
