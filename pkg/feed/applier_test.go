package feed

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanterre/bookstream/pkg/book"
)

func delta(price, size float64) book.Delta {
	return book.NewDelta(fpdecimal.FromFloat(price), fpdecimal.FromFloat(size))
}

func depthUpdate(first, final int64, bids, asks []book.Delta) *DepthUpdate {
	return &DepthUpdate{
		Symbol:        "BTCUSDT",
		FirstUpdateID: first,
		FinalUpdateID: final,
		Bids:          bids,
		Asks:          asks,
	}
}

func newTestApplier(t *testing.T) (*Applier, *book.OrderBook) {
	t.Helper()
	b := book.NewOrderBook("BTCUSDT", book.Absolute, 0)
	return NewApplier(b, zerolog.Nop()), b
}

func TestApplier_BootstrapThenApply(t *testing.T) {
	a, b := newTestApplier(t)

	err := a.Bootstrap(
		[]book.Delta{delta(100, 1)},
		[]book.Delta{delta(101, 1)},
		100,
	)
	require.NoError(t, err)
	assert.True(t, a.Synced())
	assert.Equal(t, int64(100), b.LastUpdateID())

	require.NoError(t, a.Apply(depthUpdate(101, 105, []book.Delta{delta(99, 2)}, nil)))
	assert.Equal(t, int64(105), b.LastUpdateID())
	assert.Equal(t, 2, b.Bids().Len())
}

func TestApplier_DropsStaleUpdates(t *testing.T) {
	a, b := newTestApplier(t)
	require.NoError(t, a.Bootstrap(nil, nil, 100))

	require.NoError(t, a.Apply(depthUpdate(90, 100, []book.Delta{delta(99, 2)}, nil)))

	assert.Equal(t, int64(100), b.LastUpdateID())
	assert.Equal(t, 0, b.Bids().Len(), "stale update must not touch the book")
}

func TestApplier_DetectsGap(t *testing.T) {
	a, b := newTestApplier(t)
	require.NoError(t, a.Bootstrap(nil, nil, 100))

	err := a.Apply(depthUpdate(105, 110, []book.Delta{delta(99, 2)}, nil))
	require.ErrorIs(t, err, ErrSequenceGap)
	assert.False(t, a.Synced())
	assert.Equal(t, 0, b.Bids().Len())

	// after a fresh bootstrap the stream reconnects cleanly
	require.NoError(t, a.Bootstrap(nil, nil, 110))
	require.NoError(t, a.Apply(depthUpdate(111, 112, []book.Delta{delta(99, 2)}, nil)))
	assert.True(t, a.Synced())
}

func TestApplier_OverlappingFirstIDIsAccepted(t *testing.T) {
	// exchanges replay overlapping ranges after snapshots; anything touching
	// last+1 connects
	a, b := newTestApplier(t)
	require.NoError(t, a.Bootstrap(nil, nil, 100))

	require.NoError(t, a.Apply(depthUpdate(95, 103, []book.Delta{delta(99, 2)}, nil)))
	assert.Equal(t, int64(103), b.LastUpdateID())
}

func TestApplier_UnsyncedAppliesFirstUpdate(t *testing.T) {
	// feeds without snapshots start from an empty book; the first update
	// establishes the sequence
	a, b := newTestApplier(t)

	require.NoError(t, a.Apply(depthUpdate(500, 510, []book.Delta{delta(99, 2)}, nil)))
	assert.True(t, a.Synced())
	assert.Equal(t, int64(510), b.LastUpdateID())
}
