package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_gateway/internal/models"
)

var testNow = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

func TestNormalizeBasic(t *testing.T) {
	norm, err := Normalize(RawPayload{
		"symbol":    "spy",
		"direction": "long",
		"timeframe": "5m",
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "SPY", norm.Symbol)
	assert.Equal(t, models.DirectionLong, norm.Direction)
	assert.Equal(t, "5m", norm.Timeframe)
	assert.Equal(t, testNow, norm.Timestamp, "без timestamp в payload берём время приёма")
}

func TestNormalizeDirectionVocabulary(t *testing.T) {
	longWords := []string{"long", "buy", "bull", "bullish", "up", "call", "markup", "breakout", "BUY", " Long "}
	shortWords := []string{"short", "sell", "bear", "bearish", "down", "put", "markdown", "breakdown"}

	for _, w := range longWords {
		norm, err := Normalize(RawPayload{"ticker": "QQQ", "direction": w, "tf": "15min"}, testNow)
		require.NoError(t, err, "direction=%q", w)
		assert.Equal(t, models.DirectionLong, norm.Direction, "direction=%q", w)
	}
	for _, w := range shortWords {
		norm, err := Normalize(RawPayload{"ticker": "QQQ", "direction": w, "tf": "15min"}, testNow)
		require.NoError(t, err, "direction=%q", w)
		assert.Equal(t, models.DirectionShort, norm.Direction, "direction=%q", w)
	}
}

func TestNormalizeDirectionSources(t *testing.T) {
	cases := []struct {
		name    string
		payload RawPayload
		want    models.Direction
	}{
		{"side", RawPayload{"side": "sell"}, models.DirectionShort},
		{"nested signal.type", RawPayload{"signal": map[string]any{"type": "bearish"}}, models.DirectionShort},
		{"regime_context.local_bias", RawPayload{"regime_context": map[string]any{"local_bias": "bullish"}}, models.DirectionLong},
		{"execution_guidance.bias", RawPayload{"execution_guidance": map[string]any{"bias": "short"}}, models.DirectionShort},
		{"order_action", RawPayload{"order_action": "buy"}, models.DirectionLong},
		{"pattern heuristic bull", RawPayload{"pattern": "Bull Flag"}, models.DirectionLong},
		{"pattern heuristic bear", RawPayload{"pattern": "bearish divergence"}, models.DirectionShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.payload["symbol"] = "AAPL"
			tc.payload["timeframe"] = "1h"
			norm, err := Normalize(tc.payload, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, norm.Direction)
		})
	}
}

func TestNormalizeDirectionPriority(t *testing.T) {
	// прямое поле direction выигрывает у вложенных подсказок
	norm, err := Normalize(RawPayload{
		"symbol":    "TSLA",
		"timeframe": "5m",
		"direction": "short",
		"signal":    map[string]any{"type": "bullish"},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.DirectionShort, norm.Direction)
}

func TestNormalizeTimeframe(t *testing.T) {
	cases := []struct {
		name    string
		payload RawPayload
		want    string
	}{
		{"numeric minutes", RawPayload{"timeframe": float64(5)}, "5m"},
		{"string minutes", RawPayload{"timeframe": "15min"}, "15m"},
		{"word hours", RawPayload{"interval": "2 hours"}, "2h"},
		{"sixty stays literal", RawPayload{"tf": "60"}, "60m"},
		{"trigger_timeframe", RawPayload{"trigger_timeframe": "1d"}, "1d"},
		{"session marker", RawPayload{"session": "PRE"}, "1d"},
		{"strat details imply daily", RawPayload{"strat_details": map[string]any{"pattern": "2-1-2"}}, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.payload["symbol"] = "SPY"
			tc.payload["direction"] = "long"
			norm, err := Normalize(tc.payload, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, norm.Timeframe)
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	base := RawPayload{"symbol": "SPY", "direction": "long", "timeframe": "5m"}

	t.Run("epoch seconds", func(t *testing.T) {
		p := RawPayload{"timestamp": float64(1700000000)}
		for k, v := range base {
			p[k] = v
		}
		norm, err := Normalize(p, testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), norm.Timestamp.Unix())
	})

	t.Run("epoch millis", func(t *testing.T) {
		p := RawPayload{"bar_time": float64(1700000000000)}
		for k, v := range base {
			p[k] = v
		}
		norm, err := Normalize(p, testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), norm.Timestamp.Unix())
	})

	t.Run("rfc3339", func(t *testing.T) {
		p := RawPayload{"time": "2025-06-02T14:00:00Z"}
		for k, v := range base {
			p[k] = v
		}
		norm, err := Normalize(p, testNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), norm.Timestamp)
	})

	t.Run("garbage falls back to now", func(t *testing.T) {
		p := RawPayload{"timestamp": "yesterday"}
		for k, v := range base {
			p[k] = v
		}
		norm, err := Normalize(p, testNow)
		require.NoError(t, err)
		assert.Equal(t, testNow, norm.Timestamp)
	})
}

func TestNormalizeValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload RawPayload
		code    string
	}{
		{"no symbol", RawPayload{"direction": "long", "timeframe": "5m"}, ErrMissingSymbol},
		{"no direction", RawPayload{"symbol": "SPY", "timeframe": "5m"}, ErrInvalidDirection},
		{"unknown direction", RawPayload{"symbol": "SPY", "direction": "sideways", "timeframe": "5m"}, ErrInvalidDirection},
		{"no timeframe", RawPayload{"symbol": "SPY", "direction": "long"}, ErrMissingTimeframe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.payload, testNow)
			require.Error(t, err)
			ve, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.Equal(t, tc.code, ve.Code)
		})
	}
}

func TestSignalHashDeterministic(t *testing.T) {
	p := RawPayload{"symbol": "SPY", "direction": "long", "timeframe": "5m", "timestamp": float64(1700000000)}
	a, err := Normalize(p, testNow)
	require.NoError(t, err)
	b, err := Normalize(p, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash(), "хэш не зависит от времени приёма")

	p["direction"] = "short"
	c, err := Normalize(p, testNow)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), c.Hash())
}
