package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_gateway/internal/models"
	"signal_gateway/internal/modules/config"
)

type memWriter struct {
	shadows []*models.ShadowTrade
	orders  []*models.Order
}

func (w *memWriter) InsertShadow(_ context.Context, st *models.ShadowTrade) (int64, error) {
	w.shadows = append(w.shadows, st)
	return int64(len(w.shadows)), nil
}

func (w *memWriter) InsertOrder(_ context.Context, o *models.Order) (int64, error) {
	w.orders = append(w.orders, o)
	return int64(len(w.orders)), nil
}

type memOpener struct {
	positions []*models.Position
}

func (o *memOpener) Open(_ context.Context, pos *models.Position) (int64, error) {
	o.positions = append(o.positions, pos)
	return int64(len(o.positions)), nil
}

func execConfig() *config.Config {
	cfg := &config.Config{}
	cfg.PaperTrading = true
	cfg.OrderQty = 2
	return cfg
}

func approvedSignal() *models.Signal {
	return &models.Signal{
		ID:        1,
		Symbol:    "SPY",
		Direction: models.DirectionLong,
	}
}

func TestExecutePaperTrade(t *testing.T) {
	writer := &memWriter{}
	opener := &memOpener{}
	e := NewExecutor(execConfig(), writer, opener)

	err := e.Execute(context.Background(), Approval{
		Signal:       approvedSignal(),
		ExperimentID: 7,
		EntryPrice:   450,
		Confidence:   78,
	})
	require.NoError(t, err)

	require.Len(t, writer.shadows, 1)
	assert.Equal(t, int64(7), writer.shadows[0].ExperimentID)
	assert.Equal(t, 78.0, writer.shadows[0].Confidence)

	require.Len(t, writer.orders, 1)
	assert.Equal(t, "entry", writer.orders[0].Kind)
	assert.True(t, writer.orders[0].Paper)
	assert.Equal(t, 2.0, writer.orders[0].Qty)

	require.Len(t, opener.positions, 1)
	assert.Equal(t, 450.0, opener.positions[0].Entry)
	assert.InDelta(t, 454.5, opener.positions[0].Target, 0.001, "дефолтная цель +1% для лонга")
}

func TestExecuteDecisionOnlySkipsOrder(t *testing.T) {
	writer := &memWriter{}
	opener := &memOpener{}
	e := NewExecutor(execConfig(), writer, opener)

	err := e.Execute(context.Background(), Approval{
		Signal:       approvedSignal(),
		ExperimentID: 7,
		EntryPrice:   450,
		Confidence:   78,
		DecisionOnly: true,
	})
	require.NoError(t, err)

	assert.Len(t, writer.shadows, 1, "shadow-трейд пишется всегда")
	assert.True(t, writer.shadows[0].DecisionOnly)
	assert.Empty(t, writer.orders)
	assert.Empty(t, opener.positions)
}

func TestExecuteTargetFromPayload(t *testing.T) {
	writer := &memWriter{}
	opener := &memOpener{}
	e := NewExecutor(execConfig(), writer, opener)

	sig := approvedSignal()
	sig.RawPayload = []byte(`{"target": 460}`)
	err := e.Execute(context.Background(), Approval{Signal: sig, ExperimentID: 7, EntryPrice: 450})
	require.NoError(t, err)

	require.Len(t, opener.positions, 1)
	assert.Equal(t, 460.0, opener.positions[0].Target)
}

func TestExecuteShortDefaultTarget(t *testing.T) {
	writer := &memWriter{}
	opener := &memOpener{}
	e := NewExecutor(execConfig(), writer, opener)

	sig := approvedSignal()
	sig.Direction = models.DirectionShort
	err := e.Execute(context.Background(), Approval{Signal: sig, ExperimentID: 7, EntryPrice: 450})
	require.NoError(t, err)

	require.Len(t, opener.positions, 1)
	assert.InDelta(t, 445.5, opener.positions[0].Target, 0.001)
}
