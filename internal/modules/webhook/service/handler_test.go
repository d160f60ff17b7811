package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_gateway/internal/helper"
	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
	"signal_gateway/internal/modules/store/service/pg"
)

type fakeSignals struct {
	mu        sync.Mutex
	dup       bool
	dupErr    error
	insertErr error
	inserted  []*models.Signal
}

func (f *fakeSignals) Insert(_ context.Context, sig *models.Signal) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	sig.ID = int64(len(f.inserted) + 1)
	sig.Status = models.StatusPending
	f.inserted = append(f.inserted, sig)
	return sig.ID, nil
}

func (f *fakeSignals) RecentExists(_ context.Context, _ string, _ models.Direction, _ string, _ bool, _ time.Duration) (bool, error) {
	return f.dup, f.dupErr
}

type fakeRouter struct {
	err error
}

func (f *fakeRouter) Route(_ context.Context, sig *models.Signal) (*models.Experiment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Experiment{ID: 7, SignalID: sig.ID, Variant: models.VariantB}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*pg.WebhookEvent
}

func (f *fakeEvents) Insert(_ context.Context, ev *pg.WebhookEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.WebhookSecret = "default"
	cfg.MaxPayloadBytes = 1024
	cfg.MaxStoredBytes = 256
	cfg.DedupWindowSeconds = 60
	return cfg
}

func newTestHandler(cfg *config.Config, signals *fakeSignals) (*Handler, chan *models.Signal, *fakeEvents) {
	out := make(chan *models.Signal, 4)
	events := &fakeEvents{}
	h := NewHandler(cfg, signals, &fakeRouter{}, events, out)
	return h, out, events
}

func postJSON(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResp(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandlerAccepted(t *testing.T) {
	signals := &fakeSignals{}
	h, out, _ := newTestHandler(testConfig(), signals)

	rr := postJSON(h, `{"symbol":"SPY","direction":"long","timeframe":"5m"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	resp := decodeResp(t, rr)
	assert.Equal(t, RespAccepted, resp.Status)
	require.NotNil(t, resp.SignalID)
	assert.Equal(t, "B", resp.Variant)
	assert.NotEmpty(t, resp.RequestID)

	require.Len(t, signals.inserted, 1)
	assert.Equal(t, models.StatusPending, signals.inserted[0].Status)

	select {
	case sig := <-out:
		assert.Equal(t, "SPY", sig.Symbol)
	default:
		t.Fatal("сигнал не ушёл в пайплайн")
	}
}

func TestHandlerDuplicate(t *testing.T) {
	signals := &fakeSignals{dup: true}
	h, _, events := newTestHandler(testConfig(), signals)

	rr := postJSON(h, `{"symbol":"SPY","direction":"long","timeframe":"5m"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, RespDuplicate, decodeResp(t, rr).Status)
	assert.Empty(t, signals.inserted, "дубликат не сохраняется повторно")

	require.Len(t, events.events, 1)
	assert.Equal(t, "duplicate", events.events[0].Status)
	assert.Equal(t, helper.DedupKey("SPY", "long", "5m", false), events.events[0].Detail["key"],
		"в журнале видно партицию дедупа")
}

func TestHandlerDedupErrorLetsThrough(t *testing.T) {
	// дедуп advisory: отказ проверки не блокирует приём
	signals := &fakeSignals{dupErr: errors.New("db down")}
	h, _, _ := newTestHandler(testConfig(), signals)

	rr := postJSON(h, `{"symbol":"SPY","direction":"long","timeframe":"5m"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, signals.inserted, 1)
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(testConfig(), &fakeSignals{})
	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandlerPayloadTooLarge(t *testing.T) {
	h, _, _ := newTestHandler(testConfig(), &fakeSignals{})
	big := `{"symbol":"SPY","pad":"` + strings.Repeat("x", 2048) + `"}`
	rr := postJSON(h, big, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "payload_too_large", decodeResp(t, rr).Reason)
}

func TestHandlerSignature(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookSecret = "topsecret"
	body := `{"symbol":"SPY","direction":"long","timeframe":"5m"}`

	t.Run("missing signature rejected", func(t *testing.T) {
		h, _, _ := newTestHandler(cfg, &fakeSignals{})
		rr := postJSON(h, body, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid_signature", decodeResp(t, rr).Reason)
	})

	t.Run("valid signature accepted", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte("topsecret"))
		mac.Write([]byte(body))
		sig := hex.EncodeToString(mac.Sum(nil))

		h, _, _ := newTestHandler(cfg, &fakeSignals{})
		rr := postJSON(h, body, map[string]string{"X-Webhook-Signature": sig})
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestHandlerInvalidJSON(t *testing.T) {
	h, _, _ := newTestHandler(testConfig(), &fakeSignals{})
	rr := postJSON(h, `{"symbol": `, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", decodeResp(t, rr).Reason)
}

func TestHandlerValidationReason(t *testing.T) {
	h, _, _ := newTestHandler(testConfig(), &fakeSignals{})
	rr := postJSON(h, `{"symbol":"SPY","direction":"sideways","timeframe":"5m"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrInvalidDirection, decodeResp(t, rr).Reason)
}

func TestHandlerInsertFailure(t *testing.T) {
	h, _, _ := newTestHandler(testConfig(), &fakeSignals{insertErr: errors.New("db down")})
	rr := postJSON(h, `{"symbol":"SPY","direction":"long","timeframe":"5m"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandlerTestFlags(t *testing.T) {
	signals := &fakeSignals{}
	h, _, _ := newTestHandler(testConfig(), signals)

	rr := postJSON(h, `{"symbol":"SPY","direction":"long","timeframe":"5m","test_session_id":"sess-1"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, signals.inserted, 1)
	assert.True(t, signals.inserted[0].IsTest, "test_session_id подразумевает is_test")
	assert.Equal(t, "sess-1", signals.inserted[0].TestSessionID)
}

func TestStoredPayloadTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStoredBytes = 64
	h, _, _ := newTestHandler(cfg, &fakeSignals{})

	big := bytes.Repeat([]byte("a"), 500)
	stored := h.storedPayload(big)
	require.Less(t, len(stored), 64)

	var marker map[string]any
	require.NoError(t, sonic.Unmarshal(stored, &marker))
	assert.Equal(t, true, marker["_truncated"])
	assert.Equal(t, float64(500), marker["original_bytes"])
}
