package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// GammaAgent — specialist, включается только при наличии GEX-среза.
// Цена над zero-gamma — бычий уклон, под — медвежий; short gamma дилеров
// усиливает движение и уверенность.
type GammaAgent struct {
	params GammaParams
}

func NewGammaAgent(params GammaParams) *GammaAgent { return &GammaAgent{params: params} }

func (a *GammaAgent) Name() string           { return "gamma" }
func (a *GammaAgent) Type() models.AgentType { return models.AgentSpecialist }

func (a *GammaAgent) ShouldActivate(_ *models.Signal, enr *models.EnrichedSignal) bool {
	return enr.Gex != nil
}

func (a *GammaAgent) Analyze(_ context.Context, _ *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	gex := enr.Gex
	if gex == nil {
		return output(a.Name(), a.Type(), models.BiasNeutral, 20, "gex unavailable")
	}

	bias := models.BiasNeutral
	if enr.CurrentPrice > 0 && gex.ZeroGammaLevel > 0 {
		if enr.CurrentPrice > gex.ZeroGammaLevel {
			bias = models.BiasBullish
		} else if enr.CurrentPrice < gex.ZeroGammaLevel {
			bias = models.BiasBearish
		}
	}

	conf := 50.0
	regime := gex.DealerPosition
	switch regime {
	case models.DealerShortGamma:
		conf = a.params.ShortGammaConfidence
	case models.DealerLongGamma:
		conf = a.params.LongGammaConfidence
	}
	return output(a.Name(), a.Type(), bias, conf,
		fmt.Sprintf("dealer %s, zero gamma %.2f", regime, gex.ZeroGammaLevel))
}
