package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
)

var ruleNow = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

func ruleEngine(t *testing.T) *RuleEngine {
	t.Helper()
	cfg := &config.Config{}
	cfg.MaxSignalAgeMinutes = 10
	cfg.ApprovalThreshold = 60
	r := NewRuleEngine(cfg)
	r.now = func() time.Time { return ruleNow }
	return r
}

func TestRuleEngineApprove(t *testing.T) {
	r := ruleEngine(t)
	d := r.Evaluate(&models.Signal{
		Symbol:     "SPY",
		Timestamp:  ruleNow.Add(-time.Minute),
		RawPayload: []byte(`{"confidence": 72}`),
	})
	assert.Equal(t, models.DecisionApprove, d.Outcome)
	assert.Equal(t, 72.0, d.Confidence)
	assert.Equal(t, 3, d.Tier)
}

func TestRuleEngineStale(t *testing.T) {
	r := ruleEngine(t)
	d := r.Evaluate(&models.Signal{
		Symbol:    "SPY",
		Timestamp: ruleNow.Add(-time.Hour),
	})
	assert.Equal(t, models.DecisionReject, d.Outcome)
	assert.Equal(t, models.RejectSignalStale, d.Reason)
	assert.Equal(t, 1, d.Tier, "свежесть режет до оценки уверенности")
}

func TestRuleEngineStaleTestBypass(t *testing.T) {
	r := ruleEngine(t)
	d := r.Evaluate(&models.Signal{
		Symbol:     "SPY",
		Timestamp:  ruleNow.Add(-time.Hour),
		IsTest:     true,
		RawPayload: []byte(`{"confidence": 72}`),
	})
	assert.Equal(t, models.DecisionApprove, d.Outcome)
}

func TestRuleEngineLowConfidence(t *testing.T) {
	r := ruleEngine(t)

	d := r.Evaluate(&models.Signal{
		Symbol:     "SPY",
		Timestamp:  ruleNow.Add(-time.Minute),
		RawPayload: []byte(`{"confidence": 40}`),
	})
	assert.Equal(t, models.DecisionReject, d.Outcome)
	assert.Equal(t, models.RejectLowConfidence, d.Reason)

	// без заявленной уверенности действует дефолт 50 — ниже порога 60
	d = r.Evaluate(&models.Signal{Symbol: "SPY", Timestamp: ruleNow.Add(-time.Minute)})
	assert.Equal(t, models.DecisionReject, d.Outcome)
}
