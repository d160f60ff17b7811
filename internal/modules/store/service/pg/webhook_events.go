package pg

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"signal_gateway/pkg/db"
)

// WebhookEvents — журнал входящих запросов: каждый исход (accepted/duplicate/
// invalid_payload/invalid_signature/error) фиксируется для аудита.
type WebhookEvents struct {
	db *db.PgTxManager
}

func NewWebhookEvents(m *db.PgTxManager) *WebhookEvents {
	return &WebhookEvents{db: m}
}

type WebhookEvent struct {
	RequestID  string
	Status     string
	SignalID   *int64
	Detail     map[string]any
	DurationMs int64
}

func (w *WebhookEvents) Insert(ctx context.Context, ev *WebhookEvent) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("WebhookEvents.Insert: %w", err)
		}
	}()

	var detail []byte
	if ev.Detail != nil {
		detail, err = sonic.Marshal(ev.Detail)
		if err != nil {
			return err
		}
	}

	return w.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO webhook_events (request_id, status, signal_id, detail, duration_ms, created_at)
			VALUES ($1,$2,$3,$4,$5,now())`,
			ev.RequestID, ev.Status, ev.SignalID, detail, ev.DurationMs,
		)
		return err
	})
}
