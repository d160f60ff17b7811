package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_gateway/internal/models"
)

func collect(t *testing.T, enr *models.EnrichedSignal) map[string]models.AgentOutput {
	t.Helper()
	o := NewOrchestrator(defaultAgentsConfig())
	sig := &models.Signal{Symbol: "SPY", Direction: models.DirectionLong, Timeframe: "5m"}
	outputs := o.Collect(context.Background(), sig, enr)

	byName := map[string]models.AgentOutput{}
	for _, out := range outputs {
		byName[out.Agent] = out
	}
	return byName
}

func TestOrchestratorCoreAlwaysRun(t *testing.T) {
	// пустое обогащение: специалистам нечего анализировать
	byName := collect(t, &models.EnrichedSignal{Risk: models.RiskResult{Session: models.SessionRegular}})

	for _, core := range []string{"trend", "momentum", "risk"} {
		require.Contains(t, byName, core, "core-агент опрашивается всегда")
	}
	assert.NotContains(t, byName, "gamma", "без GEX специалист не активируется")
	assert.NotContains(t, byName, "flow")
	assert.NotContains(t, byName, "session", "регулярная сессия не включает subagent")
}

func TestOrchestratorSpecialistActivation(t *testing.T) {
	enr := &models.EnrichedSignal{
		CurrentPrice: 450,
		Gex: &models.GexSnapshot{
			DealerPosition: models.DealerShortGamma,
			ZeroGammaLevel: 440,
		},
		OptionsFlow: &models.OptionsFlowSummary{CallPremium: 2e6, PutPremium: 1e6},
		Risk:        models.RiskResult{Session: models.SessionPremarket},
	}
	byName := collect(t, enr)

	require.Contains(t, byName, "gamma")
	require.Contains(t, byName, "flow")
	require.Contains(t, byName, "session")

	assert.Equal(t, models.AgentSpecialist, byName["gamma"].Type)
	assert.Equal(t, models.AgentSubagent, byName["session"].Type)
}

func TestOrchestratorDegradedOutputsStayValid(t *testing.T) {
	// агенты обязаны переживать пустое обогащение валидным выводом
	byName := collect(t, &models.EnrichedSignal{Risk: models.RiskResult{Session: models.SessionRegular}})
	for name, out := range byName {
		assert.GreaterOrEqual(t, out.Confidence, 0.0, "agent %s", name)
		assert.LessOrEqual(t, out.Confidence, 100.0, "agent %s", name)
		assert.NotEmpty(t, out.Reasons, "agent %s объясняет решение", name)
		assert.False(t, out.Block, "нет данных — нет вето, agent %s", name)
	}
}
