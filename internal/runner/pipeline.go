package runner

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"signal_gateway/internal/models"
	agents "signal_gateway/internal/modules/agents/service"
	"signal_gateway/internal/modules/config"
	enrichment "signal_gateway/internal/modules/enrichment/service"
	execution "signal_gateway/internal/modules/execution/service"
	experiment "signal_gateway/internal/modules/experiment/service"
	health "signal_gateway/internal/modules/health/service"
	"signal_gateway/internal/modules/store/service/pg"
	"signal_gateway/internal/notify"
	"signal_gateway/pkg/logger"
	"signal_gateway/pkg/tracing"
)

// Pipeline принимает принятые вебхуком сигналы и доводит их до терминального
// статуса: вариант A — ярусные правила, вариант B — обогащение, агенты,
// голосование.
type Pipeline struct {
	cfg          *config.Config
	signals      *pg.Signals
	router       *experiment.Router
	enricher     *enrichment.Service
	orchestrator *agents.Orchestrator
	aggregator   *agents.Aggregator
	rules        *execution.RuleEngine
	executor     *execution.Executor
	notifier     notify.Notifier
	state        *health.State
}

func NewPipeline(
	cfg *config.Config,
	signals *pg.Signals,
	router *experiment.Router,
	enricher *enrichment.Service,
	orchestrator *agents.Orchestrator,
	aggregator *agents.Aggregator,
	rules *execution.RuleEngine,
	executor *execution.Executor,
	notifier notify.Notifier,
	state *health.State,
) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		signals:      signals,
		router:       router,
		enricher:     enricher,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		rules:        rules,
		executor:     executor,
		notifier:     notifier,
		state:        state,
	}
}

// Process доводит один сигнал до конца. Ошибки не всплывают наружу: сигнал
// либо получает терминальный статус, либо остаётся pending до ручного разбора.
func (p *Pipeline) Process(ctx context.Context, sig *models.Signal) {
	ctx, finish := tracing.StartStage(ctx, "pipeline")
	defer finish()

	p.state.TouchSignal(time.Now())

	// роутинг идемпотентен: повторный вызов вернёт сохранённый вариант
	exp, err := p.router.Route(ctx, sig)
	if err != nil {
		logger.Error("signal %d: routing failed: %v", sig.ID, err)
		return
	}

	switch exp.Variant {
	case models.VariantB:
		p.processB(ctx, sig, exp)
	default:
		p.processA(ctx, sig, exp)
	}
}

// processA — контрольная ветка без внешних вызовов.
func (p *Pipeline) processA(ctx context.Context, sig *models.Signal, exp *models.Experiment) {
	ctx, finish := tracing.StartStage(ctx, "variant_a")
	defer finish()

	d := p.rules.Evaluate(sig)
	if d.Outcome == models.DecisionReject {
		p.reject(ctx, sig, d.Reason)
		return
	}

	entry, _ := payloadPrice(sig.RawPayload)
	p.approve(ctx, sig, execution.Approval{
		Signal:       sig,
		ExperimentID: exp.ID,
		EntryPrice:   entry,
		Confidence:   d.Confidence,
	})
}

// processB — обогащение, оркестрация агентов, агрегация.
func (p *Pipeline) processB(ctx context.Context, sig *models.Signal, exp *models.Experiment) {
	ctx, finish := tracing.StartStage(ctx, "variant_b")
	defer finish()

	res := p.enricher.BuildSignalEnrichment(ctx, sig)

	if res.QueueUntil != nil {
		if !models.ValidTransition(sig.Status, models.StatusQueued) {
			logger.Error("signal %d: %s -> queued запрещён", sig.ID, sig.Status)
			return
		}
		if err := p.signals.Queue(ctx, sig.ID, *res.QueueUntil, res.QueueReason); err != nil {
			logger.Error("signal %d: queue failed: %v", sig.ID, err)
			return
		}
		p.notifier.Sendf("⏸ %s %s отложен до %s (%s)",
			sig.Symbol, sig.Direction, res.QueueUntil.Format(time.RFC3339), res.QueueReason)
		return
	}
	if res.RejectionReason != "" {
		p.reject(ctx, sig, res.RejectionReason)
		return
	}

	outputs := p.orchestrator.Collect(ctx, sig, res.Enriched)
	md, err := p.aggregator.Aggregate(outputs)
	if err != nil {
		// дефект агента: не глотаем, сигнал остаётся pending до разбора
		logger.Error("signal %d: aggregation defect: %v", sig.ID, err)
		p.notifier.Sendf("🐞 Сигнал %d: дефект агрегации: %v", sig.ID, err)
		return
	}

	if md.Disagreement {
		p.notifier.Sendf("⚖️ %s %s: агенты разошлись (consensus %.0f)",
			sig.Symbol, sig.Direction, md.ConsensusStrength)
	}

	if md.Vetoed {
		p.notifier.Sendf("🛑 %s %s: вето от %v", sig.Symbol, sig.Direction, md.VetoedBy)
		p.reject(ctx, sig, models.RejectAgentVeto)
		return
	}
	if md.Decision != models.DecisionApprove {
		p.reject(ctx, sig, models.RejectLowConfidence)
		return
	}

	p.approve(ctx, sig, execution.Approval{
		Signal:       sig,
		ExperimentID: exp.ID,
		EntryPrice:   res.Enriched.CurrentPrice,
		Confidence:   md.FinalConfidence,
		DecisionOnly: res.DecisionOnly,
	})
}

func (p *Pipeline) reject(ctx context.Context, sig *models.Signal, reason string) {
	if !models.ValidTransition(sig.Status, models.StatusRejected) {
		logger.Error("signal %d: %s -> rejected запрещён", sig.ID, sig.Status)
		return
	}
	if err := p.signals.UpdateStatus(ctx, sig.ID, models.StatusRejected, reason); err != nil {
		logger.Error("signal %d: reject failed: %v", sig.ID, err)
	}
	logger.Info("signal %d rejected: %s", sig.ID, reason)
}

func (p *Pipeline) approve(ctx context.Context, sig *models.Signal, ap execution.Approval) {
	if !models.ValidTransition(sig.Status, models.StatusApproved) {
		logger.Error("signal %d: %s -> approved запрещён", sig.ID, sig.Status)
		return
	}
	if err := p.executor.Execute(ctx, ap); err != nil {
		logger.Error("signal %d: execution failed: %v", sig.ID, err)
		p.reject(ctx, sig, "execution_failed")
		return
	}
	if err := p.signals.UpdateStatus(ctx, sig.ID, models.StatusApproved, ""); err != nil {
		logger.Error("signal %d: approve failed: %v", sig.ID, err)
		return
	}
	mode := "paper"
	if ap.DecisionOnly {
		mode = "decision-only"
	}
	p.notifier.Sendf("✅ %s %s @ %.2f (conf %.0f, %s)",
		sig.Symbol, sig.Direction, ap.EntryPrice, ap.Confidence, mode)
}

func payloadPrice(raw []byte) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var p map[string]any
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return 0, false
	}
	for _, key := range []string{"price", "close", "current_price"} {
		if v, ok := p[key].(float64); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}
