package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/db"
)

// Positions — читающий контракт исполнения для risk/capacity гейтов.
type Positions struct {
	db *db.PgTxManager
}

func NewPositions(m *db.PgTxManager) *Positions {
	return &Positions{db: m}
}

// CountOpen — все открытые позиции; symbol="" значит без фильтра.
func (p *Positions) CountOpen(ctx context.Context, symbol string) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Positions.CountOpen: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT count(*) FROM positions
			WHERE status = 'open' AND ($1 = '' OR symbol = $1)`,
			symbol,
		)
		return row.Scan(&n)
	})
	return n, err
}

// ListClosable — старейшие открытые позиции, кандидаты на высвобождение слота.
func (p *Positions) ListClosable(ctx context.Context, limit int) (out []models.Position, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Positions.ListClosable: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, `
			SELECT id, symbol, side, qty, entry_price, target_price, current_price, status, opened_at
			FROM positions
			WHERE status = 'open'
			ORDER BY opened_at ASC
			LIMIT $1`,
			limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var pos models.Position
			var side string
			if err := rows.Scan(&pos.ID, &pos.Symbol, &side, &pos.Qty, &pos.Entry,
				&pos.Target, &pos.Current, &pos.Status, &pos.OpenedAt); err != nil {
				return err
			}
			pos.Side = models.Direction(side)
			out = append(out, pos)
		}
		return rows.Err()
	})
	return out, err
}

// Open регистрирует новую бумажную позицию; она сразу учитывается гейтом ёмкости.
func (p *Positions) Open(ctx context.Context, pos *models.Position) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Positions.Open: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO positions (symbol, side, qty, entry_price, target_price, current_price, status, opened_at)
			VALUES ($1,$2,$3,$4,$5,$6,'open',now())
			RETURNING id`,
			pos.Symbol, string(pos.Side), pos.Qty, pos.Entry, pos.Target, pos.Current,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	pos.ID = id
	return id, nil
}

// MarkClosing переводит позицию в closing; плоскость гонки закрыта условием status='open'.
func (p *Positions) MarkClosing(ctx context.Context, positionID int64) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Positions.MarkClosing: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx,
			`UPDATE positions SET status = 'closing' WHERE id = $1 AND status = 'open'`,
			positionID,
		)
		if err != nil {
			return err
		}
		ok = tag.RowsAffected() == 1
		return nil
	})
	return ok, err
}
