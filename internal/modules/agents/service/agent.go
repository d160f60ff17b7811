package service

import (
	"context"

	"signal_gateway/internal/models"
)

// Agent — контракт анализатора. Core-агенты опрашиваются всегда,
// specialist/subagent — только если ShouldActivate вернул true.
// Агент обязан переживать отсутствие полей обогащения: нет GEX — валидный
// вывод с причиной, а не ошибка.
type Agent interface {
	Name() string
	Type() models.AgentType
	ShouldActivate(sig *models.Signal, enr *models.EnrichedSignal) bool
	Analyze(ctx context.Context, sig *models.Signal, enr *models.EnrichedSignal) models.AgentOutput
}

func output(name string, typ models.AgentType, bias models.Bias, confidence float64, reasons ...string) models.AgentOutput {
	return models.AgentOutput{
		Agent:      name,
		Bias:       bias,
		Confidence: confidence,
		Reasons:    reasons,
		Type:       typ,
	}
}
