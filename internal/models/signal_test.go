package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(StatusPending, StatusApproved))
	assert.True(t, ValidTransition(StatusPending, StatusRejected))
	assert.True(t, ValidTransition(StatusPending, StatusQueued))
	assert.True(t, ValidTransition(StatusQueued, StatusApproved))
	assert.True(t, ValidTransition(StatusQueued, StatusRejected))
	assert.True(t, ValidTransition(StatusQueued, StatusQueued), "рынок может не открыться к сроку")

	// терминальные статусы не мутируются
	assert.False(t, ValidTransition(StatusApproved, StatusRejected))
	assert.False(t, ValidTransition(StatusRejected, StatusPending))
	assert.False(t, ValidTransition(StatusApproved, StatusQueued))
}

func TestPositionProfitPct(t *testing.T) {
	long := Position{Side: DirectionLong, Entry: 100, Current: 103}
	assert.InDelta(t, 3.0, long.ProfitPct(), 0.001)

	short := Position{Side: DirectionShort, Entry: 100, Current: 103}
	assert.InDelta(t, -3.0, short.ProfitPct(), 0.001)

	zero := Position{Entry: 0, Current: 100}
	assert.Equal(t, 0.0, zero.ProfitPct())
}

func TestPositionTargetProgress(t *testing.T) {
	p := Position{Entry: 100, Target: 110, Current: 108}
	assert.InDelta(t, 0.8, p.TargetProgress(), 0.001)

	noTarget := Position{Entry: 100, Target: 100, Current: 108}
	assert.Equal(t, 0.0, noTarget.TargetProgress())
}
