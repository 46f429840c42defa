package feed

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/quanterre/bookstream/pkg/book"
)

// ErrSequenceGap reports a hole in the update-id sequence; the owner must
// resynchronize the book from a snapshot before applying further updates.
var ErrSequenceGap = errors.New("sequence gap in depth stream")

// Applier sequences depth updates onto an order book. The book itself only
// applies deltas; deciding that the stream desynchronized is this layer's
// job. Stale updates (already covered by the book's update id) are dropped
// silently, gaps surface as ErrSequenceGap.
type Applier struct {
	book   *book.OrderBook
	logger zerolog.Logger
	synced bool
}

// NewApplier creates an applier for the book. The applier is unsynced until
// the first snapshot (or first update, for feeds that start from empty).
func NewApplier(b *book.OrderBook, logger zerolog.Logger) *Applier {
	return &Applier{
		book:   b,
		logger: logger.With().Str("component", "applier").Str("symbol", b.Symbol()).Logger(),
	}
}

// Bootstrap replays a full snapshot through the book and marks the stream
// synced at the snapshot's update id.
func (a *Applier) Bootstrap(bids, asks []book.Delta, updateID int64) error {
	if err := a.book.ApplySnapshot(bids, asks, updateID); err != nil {
		return err
	}
	a.synced = true
	a.logger.Info().Int64("update_id", updateID).Msg("Book bootstrapped from snapshot")
	return nil
}

// Apply applies one depth update in arrival order. It returns ErrSequenceGap
// when the update does not connect to the book's last update id.
func (a *Applier) Apply(u *DepthUpdate) error {
	last := a.book.LastUpdateID()

	if u.FinalUpdateID <= last {
		a.logger.Debug().
			Int64("final_update_id", u.FinalUpdateID).
			Int64("last_update_id", last).
			Msg("Dropping stale update")
		return nil
	}

	if a.synced && u.FirstUpdateID > last+1 {
		a.synced = false
		a.logger.Error().
			Int64("first_update_id", u.FirstUpdateID).
			Int64("last_update_id", last).
			Msg("Sequence gap detected")
		return ErrSequenceGap
	}

	if err := a.book.ApplyUpdate(u.Bids, u.Asks, u.FinalUpdateID); err != nil {
		return err
	}
	a.synced = true
	return nil
}

// MarkSynced declares the book in sync at its current update id, for books
// restored from an external snapshot rather than through Bootstrap.
func (a *Applier) MarkSynced() { a.synced = true }

// Synced reports whether the applier considers the book in sync with the
// stream.
func (a *Applier) Synced() bool { return a.synced }
