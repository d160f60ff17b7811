package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"signal_gateway/internal/helper"
	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/store/service/pg"
	"signal_gateway/pkg/logger"
)

// Статусы ответа вебхука.
const (
	RespAccepted  = "ACCEPTED"
	RespDuplicate = "DUPLICATE"
	RespRejected  = "REJECTED"
	RespError     = "ERROR"
)

type SignalStore interface {
	Insert(ctx context.Context, sig *models.Signal) (int64, error)
	RecentExists(ctx context.Context, symbol string, direction models.Direction, timeframe string, isTest bool, window time.Duration) (bool, error)
}

type ExperimentRouter interface {
	Route(ctx context.Context, sig *models.Signal) (*models.Experiment, error)
}

type EventLog interface {
	Insert(ctx context.Context, ev *pg.WebhookEvent) error
}

type Response struct {
	Status           string `json:"status"`
	SignalID         *int64 `json:"signal_id,omitempty"`
	Variant          string `json:"variant,omitempty"`
	Reason           string `json:"reason,omitempty"`
	RequestID        string `json:"request_id"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// Handler принимает вебхук, нормализует, дедуплицирует, сохраняет pending,
// роутит в эксперимент и отдаёт сигнал в пайплайн.
type Handler struct {
	cfg     *config.Config
	signals SignalStore
	router  ExperimentRouter
	events  EventLog
	out     chan<- *models.Signal
	now     func() time.Time
}

func NewHandler(cfg *config.Config, signals SignalStore, router ExperimentRouter, events EventLog, out chan<- *models.Signal) *Handler {
	return &Handler{
		cfg:     cfg,
		signals: signals,
		router:  router,
		events:  events,
		out:     out,
		now:     time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := h.now()
	requestID := uuid.NewString()

	span, ctx := opentracing.StartSpanFromContext(r.Context(), "webhook")
	defer span.Finish()
	span.SetTag("request_id", requestID)

	defer func() {
		// неожиданные паники не утекают клиенту стектрейсом
		if p := recover(); p != nil {
			logger.Error("webhook panic: request_id=%s err=%v", requestID, p)
			h.logEvent(requestID, "error", nil, map[string]any{"panic": true}, started)
			h.respond(w, http.StatusInternalServerError, Response{
				Status: RespError, Reason: "internal error", RequestID: requestID,
				ProcessingTimeMs: time.Since(started).Milliseconds(),
			})
		}
	}()

	if r.Method != http.MethodPost {
		h.respond(w, http.StatusMethodNotAllowed, Response{
			Status: RespError, Reason: "method not allowed", RequestID: requestID,
		})
		return
	}

	// потолок на тело до парсинга — память/хранилище ограничены
	if r.ContentLength > int64(h.cfg.MaxPayloadBytes) {
		h.logEvent(requestID, "oversized_payload", nil, map[string]any{"content_length": r.ContentLength}, started)
		h.respond(w, http.StatusRequestEntityTooLarge, Response{
			Status: RespRejected, Reason: "payload_too_large", RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, int64(h.cfg.MaxPayloadBytes)+1))
	if err != nil {
		h.respond(w, http.StatusInternalServerError, Response{
			Status: RespError, Reason: "read body", RequestID: requestID,
		})
		return
	}
	if len(raw) > h.cfg.MaxPayloadBytes {
		h.logEvent(requestID, "oversized_payload", nil, map[string]any{"bytes": len(raw)}, started)
		h.respond(w, http.StatusRequestEntityTooLarge, Response{
			Status: RespRejected, Reason: "payload_too_large", RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	if !h.verifySignature(raw, r.Header.Get("X-Webhook-Signature")) {
		h.logEvent(requestID, "invalid_signature", nil, nil, started)
		h.respond(w, http.StatusUnauthorized, Response{
			Status: RespRejected, Reason: "invalid_signature", RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	var payload RawPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		h.logEvent(requestID, "invalid_payload", nil, map[string]any{"reason": "bad_json"}, started)
		h.respond(w, http.StatusBadRequest, Response{
			Status: RespRejected, Reason: "invalid_json", RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	norm, err := Normalize(payload, started)
	if err != nil {
		reason := "invalid_payload"
		if ve, ok := err.(*ValidationError); ok {
			reason = ve.Code
		}
		h.logEvent(requestID, "invalid_payload", nil, map[string]any{"reason": reason}, started)
		h.respond(w, http.StatusBadRequest, Response{
			Status: RespRejected, Reason: reason, RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	isTest, testSession := extractTestFlags(payload)

	// дедуп advisory: гонка двух одинаковых вебхуков допустима, идемпотентность
	// добивается signal_hash + 1:1 экспериментом
	window := time.Duration(h.cfg.DedupWindowSeconds) * time.Second
	dup, err := h.signals.RecentExists(ctx, norm.Symbol, norm.Direction, norm.Timeframe, isTest, window)
	if err != nil {
		logger.Warn("dedup check failed, letting signal through: %v", err)
	}
	if dup {
		h.logEvent(requestID, "duplicate", nil, map[string]any{
			"key": helper.DedupKey(norm.Symbol, string(norm.Direction), norm.Timeframe, isTest),
		}, started)
		h.respond(w, http.StatusOK, Response{
			Status: RespDuplicate, RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	sig := &models.Signal{
		Hash:          norm.Hash(),
		Symbol:        norm.Symbol,
		Direction:     norm.Direction,
		Timeframe:     norm.Timeframe,
		Timestamp:     norm.Timestamp,
		RawPayload:    h.storedPayload(raw),
		IsTest:        isTest,
		TestSessionID: testSession,
	}

	if _, err := h.signals.Insert(ctx, sig); err != nil {
		logger.Error("insert signal: %v", err)
		h.logEvent(requestID, "error", nil, map[string]any{"stage": "insert"}, started)
		h.respond(w, http.StatusInternalServerError, Response{
			Status: RespError, Reason: "internal error", RequestID: requestID,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		})
		return
	}

	exp, err := h.router.Route(ctx, sig)
	if err != nil {
		// сигнал уже сохранён; роутинг добьёт раннер повторно
		logger.Error("route signal %d: %v", sig.ID, err)
	}

	variant := ""
	if exp != nil {
		variant = string(exp.Variant)
	}

	select {
	case h.out <- sig:
	default:
		logger.Warn("pipeline queue full, signal %d stays pending", sig.ID)
	}

	h.logEvent(requestID, "accepted", &sig.ID, map[string]any{
		"symbol": sig.Symbol, "variant": variant,
	}, started)
	h.respond(w, http.StatusCreated, Response{
		Status: RespAccepted, SignalID: &sig.ID, Variant: variant, RequestID: requestID,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	})
}

// verifySignature — HMAC-SHA256 hex поверх сырого тела; дефолтный секрет = не проверяем.
func (h *Handler) verifySignature(body []byte, header string) bool {
	secret := h.cfg.WebhookSecret
	if secret == "" || secret == "default" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}

// storedPayload — тело для хранения: при превышении лимита вместо усечённого
// JSON кладём маркер (битый JSON в колонке хуже потери тела).
func (h *Handler) storedPayload(raw []byte) []byte {
	if len(raw) <= h.cfg.MaxStoredBytes {
		return raw
	}
	marker, _ := sonic.Marshal(map[string]any{
		"_truncated":     true,
		"original_bytes": len(raw),
	})
	return marker
}

func extractTestFlags(p RawPayload) (bool, string) {
	isTest := false
	if v, ok := p["is_test"].(bool); ok {
		isTest = v
	}
	session, _ := p.str("test_session_id")
	if session != "" {
		isTest = true
	}
	return isTest, session
}

func (h *Handler) logEvent(requestID, status string, signalID *int64, detail map[string]any, started time.Time) {
	ev := &pg.WebhookEvent{
		RequestID:  requestID,
		Status:     status,
		SignalID:   signalID,
		Detail:     detail,
		DurationMs: time.Since(started).Milliseconds(),
	}
	// журнал не должен валить обработку
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.events.Insert(ctx, ev); err != nil {
		logger.Warn("webhook event log: %v", err)
	}
}

func (h *Handler) respond(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, err := sonic.Marshal(resp)
	if err != nil {
		logger.Error("marshal response: %v", err)
		return
	}
	_, _ = w.Write(data)
}
