package book

import (
	"fmt"
	"strings"

	"github.com/nikolaydubina/fpdecimal"
)

// Side represents the orientation of one half of an order book
type Side int

// Book sides
const (
	Ask Side = iota
	Bid
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Ask:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// key maps a price onto the side's sort key. Keys are always compared
// ascending, so bids negate the price to keep the best level first.
func (s Side) key(price fpdecimal.Decimal) fpdecimal.Decimal {
	if s == Bid {
		return fpdecimal.Zero.Sub(price)
	}
	return price
}

// price recovers the original price from a sort key.
func (s Side) price(key fpdecimal.Decimal) fpdecimal.Decimal {
	if s == Bid {
		return fpdecimal.Zero.Sub(key)
	}
	return key
}

// Strategy selects how deltas mutate a book side. It is fixed at
// construction; each strategy expects a different delta shape.
type Strategy int

// Update strategies
const (
	// Absolute replaces the size at a price; zero size deletes the level.
	Absolute Strategy = iota
	// Counted is Absolute plus an order count; zero size or count deletes.
	Counted
	// OrderIndexed identifies levels by order id so an order can move or be
	// removed even when a later update does not restate its price.
	OrderIndexed
	// Incremental adds a signed size delta to the level at a price;
	// a non-positive result deletes the level.
	Incremental
	// IncrementalOrderIndexed combines Incremental sizing with order-id
	// identity tracking.
	IncrementalOrderIndexed
)

// String returns strategy as string
func (s Strategy) String() string {
	switch s {
	case Absolute:
		return "ABSOLUTE"
	case Counted:
		return "COUNTED"
	case OrderIndexed:
		return "ORDER_INDEXED"
	case Incremental:
		return "INCREMENTAL"
	case IncrementalOrderIndexed:
		return "INCREMENTAL_ORDER_INDEXED"
	default:
		return "UNKNOWN"
	}
}

func (s Strategy) indexed() bool {
	return s == OrderIndexed || s == IncrementalOrderIndexed
}

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToUpper(name) {
	case "ABSOLUTE":
		return Absolute, nil
	case "COUNTED":
		return Counted, nil
	case "ORDER_INDEXED":
		return OrderIndexed, nil
	case "INCREMENTAL":
		return Incremental, nil
	case "INCREMENTAL_ORDER_INDEXED":
		return IncrementalOrderIndexed, nil
	default:
		return Absolute, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
	}
}

// PriceLevel is one price and its aggregated resting quantity. Count is set
// only by the Counted strategy and OrderID only by the order-indexed ones.
type PriceLevel struct {
	Price   fpdecimal.Decimal
	Size    fpdecimal.Decimal
	Count   int64
	OrderID string
}

// Equal reports whether two levels carry the same values.
func (l PriceLevel) Equal(other PriceLevel) bool {
	return l.Price.Equal(other.Price) &&
		l.Size.Equal(other.Size) &&
		l.Count == other.Count &&
		l.OrderID == other.OrderID
}

// String returns the level as a delta-shaped tuple.
func (l PriceLevel) String() string {
	sb := strings.Builder{}
	sb.WriteString("(")
	sb.WriteString(l.Price.String())
	sb.WriteString(", ")
	sb.WriteString(l.Size.String())
	if l.Count != 0 {
		fmt.Fprintf(&sb, ", %d", l.Count)
	}
	if l.OrderID != "" {
		fmt.Fprintf(&sb, ", %s", l.OrderID)
	}
	sb.WriteString(")")
	return sb.String()
}
