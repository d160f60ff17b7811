package service

import (
	"signal_gateway/internal/models"
)

// applyConfluence — композитный скор: направление чистого потока премий,
// гамма-режим дилеров и направление самого сигнала. Считается только когда
// есть и GEX, и options flow — их отсутствие не ошибка, просто нет сигнала.
func (s *Service) applyConfluence(sig *models.Signal, res *Result) {
	enr := res.Enriched
	if enr.Gex == nil || enr.OptionsFlow == nil || res.RejectionReason != "" {
		return
	}

	conf := ComputeConfluence(sig.Direction, enr.Gex, enr.OptionsFlow)
	enr.Confluence = &conf
	enr.Risk.ConfluenceScore = &conf.Score

	if s.cfg.ConfluenceGate && conf.Score < s.cfg.ConfluenceThreshold {
		setReject(res, models.RejectConfluence)
	}
}

// ComputeConfluence: база 50, согласованный поток премий +25 / встречный -25,
// short gamma (режим расширения) +15, long gamma (возврат к среднему) -15.
func ComputeConfluence(dir models.Direction, gex *models.GexSnapshot, flow *models.OptionsFlowSummary) models.Confluence {
	netFlow := flow.CallPremium - flow.PutPremium

	flowLong := netFlow > 0
	aligned := (flowLong && dir == models.DirectionLong) ||
		(!flowLong && dir == models.DirectionShort)

	score := 50.0
	if netFlow != 0 {
		if aligned {
			score += 25
		} else {
			score -= 25
		}
	}

	switch gex.DealerPosition {
	case models.DealerShortGamma:
		score += 15
	case models.DealerLongGamma:
		score -= 15
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.Confluence{
		Score:       score,
		NetFlow:     netFlow,
		GammaRegime: gex.DealerPosition,
		Aligned:     aligned,
	}
}
