package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// TrendAgent — core. Сверяет направление сигнала с расположением EMA.
type TrendAgent struct{}

func (a *TrendAgent) Name() string           { return "trend" }
func (a *TrendAgent) Type() models.AgentType { return models.AgentCore }

func (a *TrendAgent) ShouldActivate(_ *models.Signal, _ *models.EnrichedSignal) bool { return true }

func (a *TrendAgent) Analyze(_ context.Context, sig *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	ind := enr.Indicators
	if ind == nil || ind.EMAShort <= 0 || ind.EMALong <= 0 {
		return output(a.Name(), a.Type(), models.BiasNeutral, 20, "indicators unavailable")
	}

	var trendBias models.Bias
	switch {
	case ind.EMAShort > ind.EMALong:
		trendBias = models.BiasBullish
	case ind.EMAShort < ind.EMALong:
		trendBias = models.BiasBearish
	default:
		return output(a.Name(), a.Type(), models.BiasNeutral, 40, "ema flat")
	}

	spreadPct := 0.0
	if ind.EMALong > 0 {
		spreadPct = (ind.EMAShort - ind.EMALong) / ind.EMALong * 100
		if spreadPct < 0 {
			spreadPct = -spreadPct
		}
	}
	// чем шире спред, тем увереннее, потолок 90
	conf := 55 + spreadPct*20
	if conf > 90 {
		conf = 90
	}

	aligned := (trendBias == models.BiasBullish && sig.Direction == models.DirectionLong) ||
		(trendBias == models.BiasBearish && sig.Direction == models.DirectionShort)
	reason := fmt.Sprintf("ema spread %.2f%%", spreadPct)
	if aligned {
		return output(a.Name(), a.Type(), trendBias, conf, reason, "signal aligned with trend")
	}
	return output(a.Name(), a.Type(), trendBias, conf, reason, "signal against trend")
}
