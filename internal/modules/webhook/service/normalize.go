package service

import (
	"strings"
	"time"

	"signal_gateway/internal/helper"
	"signal_gateway/internal/models"
)

// Коды ошибок валидации; уходят клиенту как machine-readable reason.
const (
	ErrMissingSymbol    = "missing_symbol"
	ErrInvalidDirection = "invalid_direction"
	ErrMissingTimeframe = "missing_timeframe"
)

type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string { return e.Code }

// RawPayload — разобранное тело вебхука. Исторических форматов много, поэтому
// никакой жёсткой схемы: цепочки опциональных лукапов, первый матч выигрывает.
type RawPayload map[string]any

func (p RawPayload) str(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (p RawPayload) num(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func (p RawPayload) nested(key string) (RawPayload, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return RawPayload(m), true
}

// Normalize — чистая функция: тело вебхука -> канонический сигнал.
// Timestamp не падает никогда, худший случай — время приёма now.
func Normalize(p RawPayload, now time.Time) (models.NormalizedSignal, error) {
	symbol, ok := extractSymbol(p)
	if !ok {
		return models.NormalizedSignal{}, &ValidationError{Code: ErrMissingSymbol}
	}

	dir, err := extractDirection(p)
	if err != nil {
		return models.NormalizedSignal{}, err
	}

	tf, ok := extractTimeframe(p)
	if !ok {
		return models.NormalizedSignal{}, &ValidationError{Code: ErrMissingTimeframe}
	}

	return models.NormalizedSignal{
		Symbol:    strings.ToUpper(symbol),
		Direction: dir,
		Timeframe: tf,
		Timestamp: extractTimestamp(p, now),
	}, nil
}

func extractSymbol(p RawPayload) (string, bool) {
	if s, ok := p.str("symbol"); ok {
		return s, true
	}
	if s, ok := p.str("ticker"); ok {
		return s, true
	}
	if meta, ok := p.nested("meta"); ok {
		if s, ok := meta.str("ticker"); ok {
			return s, true
		}
	}
	return "", false
}

// directionVocab — словарь исторических обозначений направления.
var directionVocab = map[string]models.Direction{
	"long": models.DirectionLong, "short": models.DirectionShort,
	"buy": models.DirectionLong, "sell": models.DirectionShort,
	"bull": models.DirectionLong, "bear": models.DirectionShort,
	"bullish": models.DirectionLong, "bearish": models.DirectionShort,
	"up": models.DirectionLong, "down": models.DirectionShort,
	"call": models.DirectionLong, "put": models.DirectionShort,
	"markup": models.DirectionLong, "markdown": models.DirectionShort,
	"breakout": models.DirectionLong, "breakdown": models.DirectionShort,
}

func normalizeDirection(raw string) (models.Direction, bool) {
	d, ok := directionVocab[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}

// directionExtractors — приоритетный список. Новые вендорские форматы добавляются
// в хвост, не меняя существующие.
var directionExtractors = []func(RawPayload) (string, bool){
	func(p RawPayload) (string, bool) { return p.str("direction") },
	func(p RawPayload) (string, bool) { return p.str("side") },
	func(p RawPayload) (string, bool) { return p.str("trend") },
	func(p RawPayload) (string, bool) { return p.str("bias") },
	func(p RawPayload) (string, bool) {
		sig, ok := p.nested("signal")
		if !ok {
			return "", false
		}
		for _, k := range []string{"type", "direction", "side"} {
			if s, ok := sig.str(k); ok {
				return s, true
			}
		}
		return "", false
	},
	func(p RawPayload) (string, bool) {
		rc, ok := p.nested("regime_context")
		if !ok {
			return "", false
		}
		return rc.str("local_bias")
	},
	func(p RawPayload) (string, bool) {
		eg, ok := p.nested("execution_guidance")
		if !ok {
			return "", false
		}
		return eg.str("bias")
	},
	func(p RawPayload) (string, bool) { return p.str("order_action") },
	func(p RawPayload) (string, bool) { return p.str("action") },
}

func extractDirection(p RawPayload) (models.Direction, error) {
	for _, extract := range directionExtractors {
		raw, ok := extract(p)
		if !ok {
			continue
		}
		if d, ok := normalizeDirection(raw); ok {
			return d, nil
		}
	}

	// эвристика по имени паттерна: "Bull Flag", "bearish divergence" и т.п.
	if pat, ok := p.str("pattern"); ok {
		lower := strings.ToLower(pat)
		switch {
		case strings.Contains(lower, "bull"), strings.Contains(lower, "long"):
			return models.DirectionLong, nil
		case strings.Contains(lower, "bear"), strings.Contains(lower, "short"):
			return models.DirectionShort, nil
		}
	}

	return "", &ValidationError{Code: ErrInvalidDirection}
}

// sessionMarkers — маркеры сессии; их присутствие означает дневной алерт.
var sessionMarkers = map[string]bool{
	"OPEN": true, "PRE": true, "POST": true, "REGULAR": true,
}

func extractTimeframe(p RawPayload) (string, bool) {
	for _, key := range []string{"timeframe", "tf", "interval", "trigger_timeframe"} {
		if s, ok := p.str(key); ok {
			if tf := helper.NormTF(s); tf != "" {
				return tf, true
			}
		}
		if n, ok := p.num(key); ok {
			if tf := helper.NormTFMinutes(int(n)); tf != "" {
				return tf, true
			}
		}
	}

	// payload с маркером сессии или strat_details без явного tf — дневка
	if s, ok := p.str("session"); ok && sessionMarkers[strings.ToUpper(s)] {
		return "1d", true
	}
	if _, ok := p.nested("strat_details"); ok {
		return "1d", true
	}

	return "", false
}

func extractTimestamp(p RawPayload, now time.Time) time.Time {
	for _, key := range []string{"timestamp", "time", "bar_time"} {
		if n, ok := p.num(key); ok && n > 0 {
			return helper.EpochToTime(n)
		}
		if s, ok := p.str(key); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t
			}
		}
	}
	return now
}
