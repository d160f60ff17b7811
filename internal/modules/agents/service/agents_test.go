package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"signal_gateway/internal/models"
)

func TestRiskAgentVetoOnVolatility(t *testing.T) {
	a := NewRiskAgent(RiskParams{MaxATRPct: 5})
	sig := &models.Signal{Symbol: "TSLA", Direction: models.DirectionLong}

	calm := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		CurrentPrice: 200,
		Indicators:   &models.Indicators{ATR: 4}, // 2%
	})
	assert.False(t, calm.Block)

	wild := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		CurrentPrice: 200,
		Indicators:   &models.Indicators{ATR: 14}, // 7%
	})
	assert.True(t, wild.Block)
	assert.NotEmpty(t, wild.Reasons)

	blind := a.Analyze(context.Background(), sig, &models.EnrichedSignal{})
	assert.False(t, blind.Block, "без данных вето не накладывается")
}

func TestTrendAgentBias(t *testing.T) {
	a := &TrendAgent{}
	sig := &models.Signal{Symbol: "SPY", Direction: models.DirectionLong}

	up := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		Indicators: &models.Indicators{EMAShort: 452, EMALong: 448},
	})
	assert.Equal(t, models.BiasBullish, up.Bias)

	down := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		Indicators: &models.Indicators{EMAShort: 448, EMALong: 452},
	})
	assert.Equal(t, models.BiasBearish, down.Bias)

	blind := a.Analyze(context.Background(), sig, &models.EnrichedSignal{})
	assert.Equal(t, models.BiasNeutral, blind.Bias)
	assert.LessOrEqual(t, blind.Confidence, 25.0)
}

func TestGammaAgentBias(t *testing.T) {
	a := NewGammaAgent(GammaParams{ShortGammaConfidence: 75, LongGammaConfidence: 55})
	sig := &models.Signal{Symbol: "SPY", Direction: models.DirectionLong}

	above := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		CurrentPrice: 450,
		Gex:          &models.GexSnapshot{ZeroGammaLevel: 440, DealerPosition: models.DealerShortGamma},
	})
	assert.Equal(t, models.BiasBullish, above.Bias)
	assert.Equal(t, 75.0, above.Confidence, "short gamma усиливает уверенность")

	below := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		CurrentPrice: 430,
		Gex:          &models.GexSnapshot{ZeroGammaLevel: 440, DealerPosition: models.DealerLongGamma},
	})
	assert.Equal(t, models.BiasBearish, below.Bias)
	assert.Equal(t, 55.0, below.Confidence)
}

func TestFlowAgentBias(t *testing.T) {
	a := &FlowAgent{}
	sig := &models.Signal{Symbol: "SPY", Direction: models.DirectionLong}

	calls := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		OptionsFlow: &models.OptionsFlowSummary{CallPremium: 3e6, PutPremium: 1e6},
	})
	assert.Equal(t, models.BiasBullish, calls.Bias)
	assert.Greater(t, calls.Confidence, 50.0)

	puts := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		OptionsFlow: &models.OptionsFlowSummary{CallPremium: 1e6, PutPremium: 3e6},
	})
	assert.Equal(t, models.BiasBearish, puts.Bias)

	quiet := a.Analyze(context.Background(), sig, &models.EnrichedSignal{
		OptionsFlow: &models.OptionsFlowSummary{},
	})
	assert.Equal(t, models.BiasNeutral, quiet.Bias)
}
