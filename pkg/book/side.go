package book

import (
	"sort"
	"strings"

	"github.com/nikolaydubina/fpdecimal"
)

// BookSide holds one side of a streaming order book: a price-sorted slice of
// levels rebuilt incrementally from deltas, with a parallel slice of signed
// sort keys for binary search. Both slices always have the same length and
// the keys are strictly ascending, so the best level is index 0 on either
// side.
//
// A BookSide is not safe for concurrent use. Deltas must be applied one at a
// time, in feed order; the caller serializes access.
type BookSide struct {
	side     Side
	strategy Strategy
	depth    int // max retained levels, 0 = unlimited
	visible  int // soft read cap, -1 = unlimited

	levels []PriceLevel
	keys   []fpdecimal.Decimal
	ids    map[string]fpdecimal.Decimal // order id -> current sort key
}

// NewSide creates a book side and replays the initial deltas through the
// ordinary update path. The deltas slice is only read, never retained.
// depth <= 0 means unlimited.
func NewSide(side Side, strategy Strategy, deltas []Delta, depth int) (*BookSide, error) {
	s := &BookSide{
		side:     side,
		strategy: strategy,
		depth:    depth,
		visible:  -1,
	}
	if strategy.indexed() {
		s.ids = make(map[string]fpdecimal.Decimal)
	}
	for _, d := range deltas {
		if err := s.ApplyDelta(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Side returns the side orientation.
func (s *BookSide) Side() Side { return s.side }

// Strategy returns the update strategy.
func (s *BookSide) Strategy() Strategy { return s.strategy }

// Depth returns the hard retained-level cap, 0 when unlimited.
func (s *BookSide) Depth() int { return s.depth }

// ApplyDelta validates the delta and mutates the side according to the
// strategy, then trims any levels beyond the configured depth. A failed
// validation leaves the side untouched.
func (s *BookSide) ApplyDelta(d Delta) error {
	if err := s.strategy.validate(d); err != nil {
		return err
	}

	var err error
	switch s.strategy {
	case Absolute:
		s.applyAbsolute(d)
	case Counted:
		s.applyCounted(d)
	case Incremental:
		s.applyIncremental(d)
	case OrderIndexed:
		err = s.applyOrderIndexed(d, false)
	case IncrementalOrderIndexed:
		err = s.applyOrderIndexed(d, true)
	default:
		err = ErrInvalidStrategy
	}
	if err != nil {
		return err
	}

	s.trim()
	return nil
}

// Store applies an (price, size) delta; the wrapper for the Absolute and
// Incremental strategies.
func (s *BookSide) Store(price, size fpdecimal.Decimal) error {
	return s.ApplyDelta(NewDelta(price, size))
}

// StoreCounted applies a (price, size, count) delta.
func (s *BookSide) StoreCounted(price, size fpdecimal.Decimal, count int64) error {
	return s.ApplyDelta(NewCountedDelta(price, size, count))
}

// StoreOrder applies a (price, size, orderID) delta.
func (s *BookSide) StoreOrder(price, size fpdecimal.Decimal, orderID string) error {
	return s.ApplyDelta(NewOrderDelta(price, size, orderID))
}

// StoreOrderUnpriced applies a (size, orderID) delta without restating the
// order's price.
func (s *BookSide) StoreOrderUnpriced(size fpdecimal.Decimal, orderID string) error {
	return s.ApplyDelta(NewUnpricedOrderDelta(size, orderID))
}

// locate returns the leftmost position whose key is >= key.
func (s *BookSide) locate(key fpdecimal.Decimal) int {
	return sort.Search(len(s.keys), func(i int) bool {
		return s.keys[i].GreaterThanOrEqual(key)
	})
}

// matchAt reports whether position i holds exactly the given key.
func (s *BookSide) matchAt(i int, key fpdecimal.Decimal) bool {
	return i < len(s.keys) && s.keys[i].Equal(key)
}

// insertAt inserts level and key at position i, keeping both slices in
// lockstep.
func (s *BookSide) insertAt(i int, level PriceLevel, key fpdecimal.Decimal) {
	s.levels = append(s.levels, PriceLevel{})
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = level

	s.keys = append(s.keys, fpdecimal.Zero)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = key
}

// removeAt removes the level and key at position i.
func (s *BookSide) removeAt(i int) {
	n := len(s.levels)
	copy(s.levels[i:], s.levels[i+1:])
	s.levels = s.levels[:n-1]
	copy(s.keys[i:], s.keys[i+1:])
	s.keys = s.keys[:n-1]
}

// trim drops the worst levels until the stored length fits the depth cap.
// Evicted levels pass through removeIndex so the order-indexed strategies
// can clean their id map.
func (s *BookSide) trim() {
	if s.depth <= 0 {
		return
	}
	for len(s.levels) > s.depth {
		last := s.levels[len(s.levels)-1]
		s.levels = s.levels[:len(s.levels)-1]
		s.keys = s.keys[:len(s.keys)-1]
		s.removeIndex(last)
	}
}

// removeIndex is invoked with every level evicted by the depth limiter.
func (s *BookSide) removeIndex(level PriceLevel) {
	if s.strategy.indexed() {
		delete(s.ids, level.OrderID)
	}
}

// Limit caps how many levels are exposed to readers without discarding the
// hidden tail. A negative n removes the cap.
func (s *BookSide) Limit(n int) {
	if n < 0 {
		n = -1
	}
	s.visible = n
}

// ClearLimit removes the visible-length cap.
func (s *BookSide) ClearLimit() {
	s.visible = -1
}

// Len returns the number of levels exposed to readers: the stored length
// truncated to the visible cap.
func (s *BookSide) Len() int {
	n := len(s.levels)
	if s.visible >= 0 && s.visible < n {
		return s.visible
	}
	return n
}

// StoredLen returns the number of retained levels regardless of any
// visible-length cap.
func (s *BookSide) StoredLen() int { return len(s.levels) }

// At returns the level at position i of the truncated view.
func (s *BookSide) At(i int) (PriceLevel, bool) {
	if i < 0 || i >= s.Len() {
		return PriceLevel{}, false
	}
	return s.levels[i], true
}

// Best returns the best level: highest price for bids, lowest for asks.
func (s *BookSide) Best() (PriceLevel, bool) {
	return s.At(0)
}

// Levels returns a copy of the truncated view in best-first order. The copy
// is detached from the side, so callers may iterate it any number of times
// while the side keeps mutating.
func (s *BookSide) Levels() []PriceLevel {
	out := make([]PriceLevel, s.Len())
	copy(out, s.levels[:s.Len()])
	return out
}

// EqualLevels compares the truncated view against a level sequence.
func (s *BookSide) EqualLevels(other []PriceLevel) bool {
	if s.Len() != len(other) {
		return false
	}
	for i, l := range other {
		if !s.levels[i].Equal(l) {
			return false
		}
	}
	return true
}

// String renders the truncated view as an ordered sequence of level tuples.
func (s *BookSide) String() string {
	sb := strings.Builder{}
	sb.WriteString("[")
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(s.levels[i].String())
	}
	sb.WriteString("]")
	return sb.String()
}
