package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// RiskAgent — core, единственный с правом вето. Блокирует вход при
// запредельной волатильности относительно цены.
type RiskAgent struct {
	params RiskParams
}

func NewRiskAgent(params RiskParams) *RiskAgent { return &RiskAgent{params: params} }

func (a *RiskAgent) Name() string           { return "risk" }
func (a *RiskAgent) Type() models.AgentType { return models.AgentCore }

func (a *RiskAgent) ShouldActivate(_ *models.Signal, _ *models.EnrichedSignal) bool { return true }

func (a *RiskAgent) Analyze(_ context.Context, _ *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	ind := enr.Indicators
	if ind == nil || ind.ATR <= 0 || enr.CurrentPrice <= 0 {
		// без данных вето не накладываем
		return output(a.Name(), a.Type(), models.BiasNeutral, 30, "volatility unknown")
	}

	atrPct := ind.ATR / enr.CurrentPrice * 100
	if atrPct > a.params.MaxATRPct {
		out := output(a.Name(), a.Type(), models.BiasNeutral, 90,
			fmt.Sprintf("atr %.2f%% exceeds cap %.2f%%", atrPct, a.params.MaxATRPct))
		out.Block = true
		return out
	}

	conf := 60.0
	if ind.SqueezeOn {
		conf = 45
	}
	return output(a.Name(), a.Type(), models.BiasNeutral, conf,
		fmt.Sprintf("atr %.2f%% within cap", atrPct))
}
