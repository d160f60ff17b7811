package service

import (
	"github.com/bytedance/sonic"
)

// Числовые подсказки из сырого payload; по каждой — цепочка исторических имён
// полей, первый матч выигрывает.
var priorityHints = [][]string{
	{"confidence", "conf", "score"},
	{"pattern_strength", "strength"},
	{"mtf_alignment", "alignment_score", "mtf_score"},
}

// PriorityScore — сумма подсказок; используется capacity-стадией для допуска
// к вытеснению старых позиций. Любой мусор в payload даёт просто 0.
func PriorityScore(rawPayload []byte) float64 {
	if len(rawPayload) == 0 {
		return 0
	}

	var p map[string]any
	if err := sonic.Unmarshal(rawPayload, &p); err != nil {
		return 0
	}

	total := 0.0
	for _, chain := range priorityHints {
		for _, key := range chain {
			if v, ok := numField(p, key); ok {
				total += v
				break
			}
		}
	}
	return total
}

func numField(p map[string]any, key string) (float64, bool) {
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
