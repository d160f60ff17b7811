package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/db"
)

// Executions — shadow-трейды и бумажные ордера.
type Executions struct {
	db *db.PgTxManager
}

func NewExecutions(m *db.PgTxManager) *Executions {
	return &Executions{db: m}
}

func (e *Executions) InsertShadow(ctx context.Context, st *models.ShadowTrade) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.InsertShadow: %w", err)
		}
	}()

	err = e.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO shadow_trades
				(signal_id, experiment_id, symbol, side, entry_price, confidence, decision_only, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,now())
			RETURNING id`,
			st.SignalID, st.ExperimentID, st.Symbol, string(st.Side),
			st.EntryPrice, st.Confidence, st.DecisionOnly,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	st.ID = id
	return id, nil
}

func (e *Executions) InsertOrder(ctx context.Context, o *models.Order) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.InsertOrder: %w", err)
		}
	}()

	err = e.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO orders (signal_id, symbol, side, qty, price, kind, paper, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,now())
			RETURNING id`,
			o.SignalID, o.Symbol, string(o.Side), o.Qty, o.Price, o.Kind, o.Paper,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	o.ID = id
	return id, nil
}
