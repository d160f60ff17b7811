package service

import (
	"context"
	"sync"

	"signal_gateway/internal/models"
	"signal_gateway/pkg/logger"
)

// Orchestrator параллельно опрашивает агентов над неизменяемым срезом
// обогащения. Core-агенты опрашиваются всегда, остальные — по ShouldActivate.
type Orchestrator struct {
	agents []Agent
}

func NewOrchestrator(cfg AgentsConfig) *Orchestrator {
	return &Orchestrator{
		agents: []Agent{
			&TrendAgent{},
			&MomentumAgent{},
			NewRiskAgent(cfg.Risk),
			NewGammaAgent(cfg.Gamma),
			&FlowAgent{},
			&SessionAgent{},
		},
	}
}

// Collect возвращает выводы активных агентов в порядке регистрации.
// Паника отдельного агента не роняет раунд: записывается нейтральный вывод.
func (o *Orchestrator) Collect(ctx context.Context, sig *models.Signal, enr *models.EnrichedSignal) []models.AgentOutput {
	slots := make([]*models.AgentOutput, len(o.agents))
	var wg sync.WaitGroup
	for i, ag := range o.agents {
		if ag.Type() != models.AgentCore && !ag.ShouldActivate(sig, enr) {
			continue
		}
		wg.Add(1)
		go func(i int, ag Agent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("агент %s паника: %v", ag.Name(), r)
					out := output(ag.Name(), ag.Type(), models.BiasNeutral, 0, "agent panic")
					slots[i] = &out
				}
			}()
			out := ag.Analyze(ctx, sig, enr)
			out.Agent = ag.Name()
			out.Type = ag.Type()
			slots[i] = &out
		}(i, ag)
	}
	wg.Wait()

	outputs := make([]models.AgentOutput, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			outputs = append(outputs, *s)
		}
	}
	return outputs
}
