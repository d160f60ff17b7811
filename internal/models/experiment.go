package models

import "time"

type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Experiment — A/B назначение, 1:1 к сигналу, создаётся один раз и не мутируется.
type Experiment struct {
	ID              int64
	SignalID        int64
	Variant         Variant
	AssignmentHash  string // hex sha256, воспроизводим для аудита
	SplitPercentage int    // доля варианта B, [0..100]
	CreatedAt       time.Time
}
