package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// MomentumAgent — core. Серия закрытий последних свечей плюс RSI.
type MomentumAgent struct{}

func (a *MomentumAgent) Name() string           { return "momentum" }
func (a *MomentumAgent) Type() models.AgentType { return models.AgentCore }

func (a *MomentumAgent) ShouldActivate(_ *models.Signal, _ *models.EnrichedSignal) bool { return true }

func (a *MomentumAgent) Analyze(_ context.Context, _ *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	candles := enr.Candles
	if len(candles) < 3 {
		return output(a.Name(), a.Type(), models.BiasNeutral, 20, "not enough candles")
	}

	up, down := 0, 0
	tail := candles
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	for i := 1; i < len(tail); i++ {
		switch {
		case tail[i].Close > tail[i-1].Close:
			up++
		case tail[i].Close < tail[i-1].Close:
			down++
		}
	}

	bias := models.BiasNeutral
	conf := 40.0
	switch {
	case up > down:
		bias = models.BiasBullish
		conf = 50 + float64(up-down)*10
	case down > up:
		bias = models.BiasBearish
		conf = 50 + float64(down-up)*10
	}

	reasons := []string{fmt.Sprintf("closes up=%d down=%d", up, down)}
	if ind := enr.Indicators; ind != nil && ind.RSI > 0 {
		// перегрев гасит уверенность в сторону движения
		if (bias == models.BiasBullish && ind.RSI > 70) || (bias == models.BiasBearish && ind.RSI < 30) {
			conf -= 15
			reasons = append(reasons, fmt.Sprintf("rsi %.1f extreme", ind.RSI))
		}
	}
	if conf > 85 {
		conf = 85
	}
	if conf < 20 {
		conf = 20
	}
	return output(a.Name(), a.Type(), bias, conf, reasons...)
}
