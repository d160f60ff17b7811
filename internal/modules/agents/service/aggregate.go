package service

import (
	"fmt"

	"signal_gateway/internal/models"
)

// Aggregator сводит выводы агентов во взвешенное голосование.
type Aggregator struct {
	cfg               AgentsConfig
	approvalThreshold float64
}

func NewAggregator(cfg AgentsConfig, approvalThreshold float64) *Aggregator {
	return &Aggregator{cfg: cfg, approvalThreshold: approvalThreshold}
}

// disagreementThreshold — ниже этой согласованности при живом конфликте
// bullish/bearish решение помечается как спорное.
const disagreementThreshold = 40.0

// Aggregate строит итоговое решение. Вето абсолютно: одна блокировка
// обнуляет итоговую уверенность независимо от остальных голосов.
// Уверенность вне [0,100] — дефект агента, возвращается ошибкой.
func (a *Aggregator) Aggregate(outputs []models.AgentOutput) (models.MetaDecision, error) {
	var md models.MetaDecision
	if len(outputs) == 0 {
		md.FinalBias = models.BiasNeutral
		md.Decision = models.DecisionReject
		return md, nil
	}

	buckets := map[models.Bias]float64{}
	var total float64
	for _, out := range outputs {
		if out.Confidence < 0 || out.Confidence > 100 {
			return md, fmt.Errorf("агент %s: уверенность %.2f вне [0,100]", out.Agent, out.Confidence)
		}
		md.ContributingAgents = append(md.ContributingAgents, out.Agent)
		if out.Block {
			md.Vetoed = true
			md.VetoedBy = append(md.VetoedBy, out.Agent)
			continue
		}
		w := a.cfg.Weight(out.Agent) * out.Confidence
		buckets[out.Bias] += w
		total += w
	}

	// при равенстве весов порядок фиксирован: neutral, затем bullish, затем bearish
	md.FinalBias = models.BiasNeutral
	best := buckets[models.BiasNeutral]
	for _, b := range []models.Bias{models.BiasBullish, models.BiasBearish} {
		if buckets[b] > best {
			best = buckets[b]
			md.FinalBias = b
		}
	}

	if total > 0 {
		md.FinalConfidence = best / total * 100
		conflict := buckets[models.BiasBullish]
		if buckets[models.BiasBearish] < conflict {
			conflict = buckets[models.BiasBearish]
		}
		md.ConsensusStrength = (best - conflict) / total * 100
		if md.ConsensusStrength < 0 {
			md.ConsensusStrength = 0
		}
	}
	md.Disagreement = buckets[models.BiasBullish] > 0 && buckets[models.BiasBearish] > 0 &&
		md.ConsensusStrength < disagreementThreshold

	if md.Vetoed {
		md.FinalConfidence = 0
	}

	md.Decision = models.DecisionReject
	if !md.Vetoed && md.FinalConfidence >= a.approvalThreshold {
		md.Decision = models.DecisionApprove
	}
	return md, nil
}
