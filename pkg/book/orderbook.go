package book

import (
	"fmt"

	"github.com/nikolaydubina/fpdecimal"
)

// OrderBook pairs a bid side and an ask side of the same strategy and tracks
// the sequence id of the last applied update. Like BookSide it is
// single-writer: the owner applies one update at a time.
type OrderBook struct {
	symbol       string
	strategy     Strategy
	depth        int
	bids         *BookSide
	asks         *BookSide
	lastUpdateID int64
}

// NewOrderBook creates an empty order book for a symbol.
func NewOrderBook(symbol string, strategy Strategy, depth int) *OrderBook {
	bids, _ := NewSide(Bid, strategy, nil, depth)
	asks, _ := NewSide(Ask, strategy, nil, depth)
	return &OrderBook{
		symbol:   symbol,
		strategy: strategy,
		depth:    depth,
		bids:     bids,
		asks:     asks,
	}
}

// Symbol returns the book's market symbol.
func (b *OrderBook) Symbol() string { return b.symbol }

// Strategy returns the update strategy shared by both sides.
func (b *OrderBook) Strategy() Strategy { return b.strategy }

// Bids returns the bid side.
func (b *OrderBook) Bids() *BookSide { return b.bids }

// Asks returns the ask side.
func (b *OrderBook) Asks() *BookSide { return b.asks }

// LastUpdateID returns the sequence id of the last applied update or
// snapshot.
func (b *OrderBook) LastUpdateID() int64 { return b.lastUpdateID }

// ApplyUpdate applies one batch of bid and ask deltas in arrival order.
// Shape validation runs over the whole batch first, so a validation failure
// leaves the book untouched. An apply-time error, such as an unpriced delta
// for an order id the side has never seen, aborts where it hit with the
// earlier deltas already applied; the update id is only advanced on full
// success.
func (b *OrderBook) ApplyUpdate(bids, asks []Delta, updateID int64) error {
	for _, d := range bids {
		if err := b.strategy.validate(d); err != nil {
			return fmt.Errorf("bid delta: %w", err)
		}
	}
	for _, d := range asks {
		if err := b.strategy.validate(d); err != nil {
			return fmt.Errorf("ask delta: %w", err)
		}
	}
	for _, d := range bids {
		if err := b.bids.ApplyDelta(d); err != nil {
			return fmt.Errorf("bid delta: %w", err)
		}
	}
	for _, d := range asks {
		if err := b.asks.ApplyDelta(d); err != nil {
			return fmt.Errorf("ask delta: %w", err)
		}
	}
	b.lastUpdateID = updateID
	return nil
}

// ApplySnapshot discards both sides and replays the snapshot deltas through
// the ordinary update path.
func (b *OrderBook) ApplySnapshot(bids, asks []Delta, updateID int64) error {
	newBids, err := NewSide(Bid, b.strategy, bids, b.depth)
	if err != nil {
		return fmt.Errorf("bid snapshot: %w", err)
	}
	newAsks, err := NewSide(Ask, b.strategy, asks, b.depth)
	if err != nil {
		return fmt.Errorf("ask snapshot: %w", err)
	}
	b.bids = newBids
	b.asks = newAsks
	b.lastUpdateID = updateID
	return nil
}

// BestBid returns the highest bid level.
func (b *OrderBook) BestBid() (PriceLevel, bool) { return b.bids.Best() }

// BestAsk returns the lowest ask level.
func (b *OrderBook) BestAsk() (PriceLevel, bool) { return b.asks.Best() }

// Spread returns best ask minus best bid; ok is false when either side is
// empty.
func (b *OrderBook) Spread() (fpdecimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return fpdecimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// MidPrice returns the midpoint between best bid and best ask.
func (b *OrderBook) MidPrice() (fpdecimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return fpdecimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Mul(fpdecimal.FromFloat(0.5)), true
}

// Limit caps the visible length of both sides.
func (b *OrderBook) Limit(n int) {
	b.bids.Limit(n)
	b.asks.Limit(n)
}

// ClearLimit removes the visible-length cap from both sides.
func (b *OrderBook) ClearLimit() {
	b.bids.ClearLimit()
	b.asks.ClearLimit()
}

// String implements fmt.Stringer interface
func (b *OrderBook) String() string {
	return fmt.Sprintf("%s {bids: %s, asks: %s, updateID: %d}",
		b.symbol, b.bids, b.asks, b.lastUpdateID)
}
