package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefbn/spotbot/internal/domain"
)

func position(instID string) *domain.Position {
	return &domain.Position{
		ID:         "test-" + instID,
		Instrument: domain.Instrument{ID: instID, QuoteCcy: "USDT"},
		EntryPrice: 100,
		Quantity:   1,
	}
}

func TestInsertAndGet(t *testing.T) {
	l := New(5)

	require.NoError(t, l.Insert(position("BTC-USDT")))
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Has("BTC-USDT"))

	got, err := l.Get("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", got.Instrument.ID)

	_, err = l.Get("ETH-USDT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsertDuplicateInstrument(t *testing.T) {
	l := New(5)

	require.NoError(t, l.Insert(position("BTC-USDT")))
	err := l.Insert(position("BTC-USDT"))
	assert.ErrorIs(t, err, domain.ErrPositionExists)
	assert.Equal(t, 1, l.Len())
}

func TestInsertAtLimitLeavesLedgerUnchanged(t *testing.T) {
	l := New(2)

	require.NoError(t, l.Insert(position("BTC-USDT")))
	require.NoError(t, l.Insert(position("ETH-USDT")))

	err := l.Insert(position("SOL-USDT"))
	assert.ErrorIs(t, err, domain.ErrPositionLimit)
	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Has("SOL-USDT"))
}

func TestRemove(t *testing.T) {
	l := New(5)

	require.NoError(t, l.Insert(position("BTC-USDT")))
	require.NoError(t, l.Remove("BTC-USDT"))
	assert.Equal(t, 0, l.Len())

	// A second remove of the same instrument is an error, not a no-op.
	assert.ErrorIs(t, l.Remove("BTC-USDT"), domain.ErrNotFound)
}

func TestOpenReturnsLivePointers(t *testing.T) {
	l := New(5)

	pos := position("BTC-USDT")
	require.NoError(t, l.Insert(pos))

	open := l.Open()
	require.Len(t, open, 1)
	open[0].StopPrice = 95

	got, err := l.Get("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 95.0, got.StopPrice)
}
