package service

import (
	"context"
	"fmt"

	"signal_gateway/internal/models"
)

// SessionAgent — subagent. Активен вне регулярной сессии: напоминает про
// тонкую ликвидность, сам направление не задаёт.
type SessionAgent struct{}

func (a *SessionAgent) Name() string           { return "session" }
func (a *SessionAgent) Type() models.AgentType { return models.AgentSubagent }

func (a *SessionAgent) ShouldActivate(_ *models.Signal, enr *models.EnrichedSignal) bool {
	return enr.Risk.Session != "" && enr.Risk.Session != models.SessionRegular
}

func (a *SessionAgent) Analyze(_ context.Context, _ *models.Signal, enr *models.EnrichedSignal) models.AgentOutput {
	reasons := []string{fmt.Sprintf("session %s, thin liquidity", enr.Risk.Session)}
	if enr.Risk.TestBypass {
		reasons = append(reasons, "test bypass active")
	}
	return output(a.Name(), a.Type(), models.BiasNeutral, 35, reasons...)
}
