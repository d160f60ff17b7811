package service

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
)

// RuleDecision — вердикт контрольного движка (вариант A).
type RuleDecision struct {
	Outcome    models.DecisionOutcome
	Confidence float64
	Tier       int // последний пройденный ярус
	Reason     string
}

// RuleEngine — контрольная ветка эксперимента: ярусные правила без внешних
// вызовов, чтобы сравнение с вариантом B было честным по задержке.
type RuleEngine struct {
	cfg *config.Config
	now func() time.Time
}

func NewRuleEngine(cfg *config.Config) *RuleEngine {
	return &RuleEngine{cfg: cfg, now: time.Now}
}

// Evaluate: ярус 1 — структура, ярус 2 — свежесть, ярус 3 — заявленная
// в payload уверенность против порога.
func (r *RuleEngine) Evaluate(sig *models.Signal) RuleDecision {
	// ярус 1: нормализация уже гарантировала symbol/direction/timeframe
	d := RuleDecision{Tier: 1, Confidence: 50}

	// ярус 2: свежесть
	age := r.now().Sub(sig.Timestamp)
	maxAge := time.Duration(r.cfg.MaxSignalAgeMinutes) * time.Minute
	if maxAge > 0 && age > maxAge && !sig.IsTest {
		d.Outcome = models.DecisionReject
		d.Reason = models.RejectSignalStale
		return d
	}
	d.Tier = 2

	// ярус 3: уверенность источника
	if conf, ok := payloadConfidence(sig.RawPayload); ok {
		d.Confidence = conf
	}
	d.Tier = 3
	if d.Confidence >= r.cfg.ApprovalThreshold {
		d.Outcome = models.DecisionApprove
		d.Reason = fmt.Sprintf("confidence %.1f over threshold %.1f", d.Confidence, r.cfg.ApprovalThreshold)
	} else {
		d.Outcome = models.DecisionReject
		d.Reason = models.RejectLowConfidence
	}
	return d
}

func payloadConfidence(raw []byte) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var p map[string]any
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return 0, false
	}
	for _, key := range []string{"confidence", "conf", "score"} {
		if v, ok := p[key].(float64); ok && v >= 0 && v <= 100 {
			return v, true
		}
	}
	return 0, false
}
