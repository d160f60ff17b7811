package models

import "time"

// Position — читаемый контракт исполнения: ядру нужны только счётчики открытых
// позиций и поля для capacity-решений.
type Position struct {
	ID       int64
	Symbol   string
	Side     Direction
	Qty      float64
	Entry    float64
	Target   float64
	Current  float64
	Status   string // open | closing | closed
	OpenedAt time.Time
}

// ProfitPct — текущий P&L позиции в процентах от входа, знак по стороне.
func (p Position) ProfitPct() float64 {
	if p.Entry == 0 {
		return 0
	}
	pct := (p.Current - p.Entry) / p.Entry * 100
	if p.Side == DirectionShort {
		pct = -pct
	}
	return pct
}

// TargetProgress — доля пройденного пути до цели, [0..1+].
func (p Position) TargetProgress() float64 {
	dist := p.Target - p.Entry
	if dist == 0 {
		return 0
	}
	return (p.Current - p.Entry) / dist
}

type Order struct {
	ID        int64
	SignalID  int64
	Symbol    string
	Side      Direction
	Qty       float64
	Price     float64
	Kind      string // entry | close
	Paper     bool
	CreatedAt time.Time
}

// ShadowTrade — симулированное исполнение для оценки варианта без риска капитала.
type ShadowTrade struct {
	ID           int64
	SignalID     int64
	ExperimentID int64
	Symbol       string
	Side         Direction
	EntryPrice   float64
	Confidence   float64
	DecisionOnly bool
	CreatedAt    time.Time
}
