package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

type SignalStatus string

// Жизненный цикл сигнала: pending -> approved|rejected|queued, терминальные не мутируются.
const (
	StatusPending  SignalStatus = "pending"
	StatusApproved SignalStatus = "approved"
	StatusRejected SignalStatus = "rejected"
	StatusQueued   SignalStatus = "queued"
)

// ValidTransition says whether a status change is allowed by the state machine.
// Queued signals get re-picked and may be re-queued again if the market still
// has not opened by the scheduled time.
func ValidTransition(from, to SignalStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusQueued
	case StatusQueued:
		return to == StatusApproved || to == StatusRejected || to == StatusQueued
	default:
		return false
	}
}

// NormalizedSignal — канонический вид вебхука после парсинга.
type NormalizedSignal struct {
	Symbol    string
	Direction Direction
	Timeframe string
	Timestamp time.Time
}

// Hash is the dedup identity: sha256(symbol:direction:timeframe:unix_ts).
func (n NormalizedSignal) Hash() string {
	src := fmt.Sprintf("%s:%s:%s:%d", n.Symbol, n.Direction, n.Timeframe, n.Timestamp.Unix())
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

type Signal struct {
	ID         int64
	Hash       string
	Symbol     string
	Direction  Direction
	Timeframe  string
	Timestamp  time.Time
	Status     SignalStatus
	RawPayload []byte // усечённый по лимиту persistence

	IsTest        bool
	TestSessionID string

	ExperimentID    *int64
	RejectionReason string
	QueuedUntil     *time.Time
	QueueReason     string

	ProcessingAttempts int
	CreatedAt          time.Time
}

// Причины отказов; первая выигрывает и не перезаписывается.
const (
	RejectSignalStale       = "signal_stale"
	RejectMarketClosed      = "market_closed"
	RejectMaxOpenPositions  = "max_open_positions_exceeded"
	RejectMaxPerSymbol      = "max_positions_per_symbol_exceeded"
	RejectConfluence        = "confluence_below_threshold"
	RejectMarketData        = "market_data_unavailable"
	RejectAgentVeto         = "agent_veto"
	RejectLowConfidence     = "confidence_below_threshold"
	QueueReasonMarketClosed = "market_closed"
)
