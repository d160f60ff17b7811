package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_gateway/internal/models"
)

func newTestAggregator(threshold float64) *Aggregator {
	return NewAggregator(defaultAgentsConfig(), threshold)
}

func out(agent string, bias models.Bias, conf float64) models.AgentOutput {
	return models.AgentOutput{Agent: agent, Bias: bias, Confidence: conf}
}

func TestAggregateConsensusHigh(t *testing.T) {
	agg := newTestAggregator(60)
	md, err := agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBullish, 70),
		out("momentum", models.BiasBullish, 80),
		out("risk", models.BiasNeutral, 50),
	})
	require.NoError(t, err)

	assert.Equal(t, models.BiasBullish, md.FinalBias)
	assert.Greater(t, md.ConsensusStrength, 70.0)
	assert.False(t, md.Disagreement)
	assert.Equal(t, models.DecisionApprove, md.Decision)
	assert.ElementsMatch(t, []string{"trend", "momentum", "risk"}, md.ContributingAgents)
}

func TestAggregateConsensusLowOnConflict(t *testing.T) {
	agg := newTestAggregator(60)
	md, err := agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBullish, 90),
		out("momentum", models.BiasBearish, 85),
		out("risk", models.BiasNeutral, 50),
	})
	require.NoError(t, err)

	assert.Less(t, md.ConsensusStrength, 40.0)
	assert.True(t, md.Disagreement, "лобовой конфликт bullish/bearish при низком консенсусе")
	assert.Equal(t, models.DecisionReject, md.Decision)
}

func TestAggregateVetoAbsolute(t *testing.T) {
	agg := newTestAggregator(10)
	veto := out("risk", models.BiasNeutral, 90)
	veto.Block = true

	md, err := agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBullish, 95),
		out("momentum", models.BiasBullish, 95),
		out("gamma", models.BiasBullish, 95),
		veto,
	})
	require.NoError(t, err)

	assert.True(t, md.Vetoed)
	assert.Equal(t, []string{"risk"}, md.VetoedBy)
	assert.Equal(t, 0.0, md.FinalConfidence, "вето обнуляет уверенность независимо от голосов")
	assert.Equal(t, models.DecisionReject, md.Decision)
	assert.Contains(t, md.ContributingAgents, "risk", "вето-агент остаётся в списке участников")
}

func TestAggregateTieBreak(t *testing.T) {
	agg := newTestAggregator(60)

	t.Run("neutral preferred on tie", func(t *testing.T) {
		md, err := agg.Aggregate([]models.AgentOutput{
			out("momentum", models.BiasBullish, 50),
			out("risk", models.BiasNeutral, 50),
		})
		require.NoError(t, err)
		assert.Equal(t, models.BiasNeutral, md.FinalBias)
	})

	t.Run("bullish over bearish without neutral", func(t *testing.T) {
		md, err := agg.Aggregate([]models.AgentOutput{
			out("momentum", models.BiasBullish, 50),
			out("trend", models.BiasBearish, 50),
		})
		require.NoError(t, err)
		assert.Equal(t, models.BiasBullish, md.FinalBias)
	})
}

func TestAggregateConfidenceBoundsDefect(t *testing.T) {
	agg := newTestAggregator(60)

	_, err := agg.Aggregate([]models.AgentOutput{out("trend", models.BiasBullish, 140)})
	require.Error(t, err, "уверенность вне диапазона — дефект, не молчаливый clamp")

	_, err = agg.Aggregate([]models.AgentOutput{out("trend", models.BiasBullish, -1)})
	require.Error(t, err)
}

func TestAggregateApprovalThreshold(t *testing.T) {
	agg := newTestAggregator(60)

	md, err := agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBullish, 55),
		out("momentum", models.BiasNeutral, 45),
	})
	require.NoError(t, err)
	// bullish доля ~55% < 60 — отказ по уверенности
	assert.Equal(t, models.DecisionReject, md.Decision)

	md, err = agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBullish, 90),
		out("momentum", models.BiasNeutral, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApprove, md.Decision)
}

func TestAggregateEmpty(t *testing.T) {
	agg := newTestAggregator(60)
	md, err := agg.Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, models.BiasNeutral, md.FinalBias)
	assert.Equal(t, models.DecisionReject, md.Decision)
}

func TestAggregateWeights(t *testing.T) {
	cfg := defaultAgentsConfig()
	cfg.Weights["trend"] = 3.0
	agg := NewAggregator(cfg, 60)

	md, err := agg.Aggregate([]models.AgentOutput{
		out("trend", models.BiasBearish, 60),
		out("momentum", models.BiasBullish, 60),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BiasBearish, md.FinalBias, "вес агента умножает его голос")
}
