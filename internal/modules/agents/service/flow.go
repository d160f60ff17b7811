package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// FlowAgent — specialist. Перекос опционных премий call/put.
type FlowAgent struct{}

func (a *FlowAgent) Name() string           { return "flow" }
func (a *FlowAgent) Type() models.AgentType { return models.AgentSpecialist }

func (a *FlowAgent) ShouldActivate(_ *models.Signal, enr *models.EnrichedSignal) bool {
	return enr.OptionsFlow != nil
}

func (a *FlowAgent) Analyze(_ context.Context, _ *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	flow := enr.OptionsFlow
	if flow == nil {
		return output(a.Name(), a.Type(), models.BiasNeutral, 20, "options flow unavailable")
	}

	total := flow.CallPremium + flow.PutPremium
	if total <= 0 {
		return output(a.Name(), a.Type(), models.BiasNeutral, 30, "no premium traded")
	}

	net := flow.CallPremium - flow.PutPremium
	share := net / total
	if share < 0 {
		share = -share
	}

	bias := models.BiasNeutral
	switch {
	case net > 0:
		bias = models.BiasBullish
	case net < 0:
		bias = models.BiasBearish
	}
	// доля перекоса масштабирует уверенность: 50 при нуле, 85 при полном
	conf := 50 + share*35
	return output(a.Name(), a.Type(), bias, conf,
		fmt.Sprintf("net premium %.0f of %.0f", net, total))
}
