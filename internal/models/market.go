package models

import "time"

type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Start  time.Time
	End    time.Time
}

type Indicators struct {
	EMAShort  float64
	EMALong   float64
	ATR       float64
	RSI       float64
	SqueezeOn bool
}

type DealerPosition string

const (
	DealerLongGamma  DealerPosition = "long_gamma"
	DealerShortGamma DealerPosition = "short_gamma"
	DealerNeutral    DealerPosition = "neutral"
)

// GexSnapshot — снимок гамма-экспозиции дилеров.
type GexSnapshot struct {
	Symbol         string
	NetGex         float64
	TotalCallGex   float64
	TotalPutGex    float64
	ZeroGammaLevel float64
	DealerPosition DealerPosition
	AsOf           time.Time
}

type OptionsFlowEntry struct {
	Side    string // call/put
	Strike  float64
	Premium float64
	Volume  int64
}

type OptionsFlowSummary struct {
	Symbol      string
	Entries     []OptionsFlowEntry
	CallPremium float64
	PutPremium  float64
	AsOf        time.Time
}

// Confluence — композитный скор: направление потока премий + гамма-режим + направление сигнала.
type Confluence struct {
	Score       float64 // [0..100]
	NetFlow     float64 // call premium - put premium
	GammaRegime DealerPosition
	Aligned     bool
}

type SessionType string

const (
	SessionRegular   SessionType = "REGULAR"
	SessionPremarket SessionType = "PRE"
	SessionAfter     SessionType = "POST"
	SessionClosed    SessionType = "CLOSED"
)

type MarketHours struct {
	IsOpen    bool
	Session   SessionType
	NextOpen  time.Time
	NextClose time.Time
}

// CapacityAction — одно действие по высвобождению слота (аудит).
type CapacityAction struct {
	PositionID int64
	Symbol     string
	Reason     string // near_target | aged_low_profit
}

// RiskResult собирает промежуточные находки всех гейтов; заполняется полностью
// даже на отказном пути.
type RiskResult struct {
	MarketOpen      bool
	Session         SessionType
	TestBypass      bool
	DecisionOnly    bool
	OpenPositions   int
	OpenForSymbol   int
	MaxOpen         int
	MaxPerSymbol    int
	CapacityActions []CapacityAction
	PriorityTotal   float64
	ConfluenceScore *float64
}

// EnrichedSignal — рыночный контекст сигнала на момент решения. Поля деривативов
// best-effort: nil значит "данных нет", это не ошибка.
type EnrichedSignal struct {
	CurrentPrice float64
	Candles      []Candle
	Indicators   *Indicators
	Gex          *GexSnapshot
	OptionsFlow  *OptionsFlowSummary
	Confluence   *Confluence
	Risk         RiskResult
}
