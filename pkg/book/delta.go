package book

import "github.com/nikolaydubina/fpdecimal"

// Delta is one update record applied to a book side. PriceKnown is false
// only for order-indexed updates that do not restate the order's price.
// Count is meaningful only for the Counted strategy and OrderID only for
// the order-indexed ones.
type Delta struct {
	Price      fpdecimal.Decimal
	PriceKnown bool
	Size       fpdecimal.Decimal
	Count      int64
	OrderID    string
}

// NewDelta creates an Absolute or Incremental delta.
func NewDelta(price, size fpdecimal.Decimal) Delta {
	return Delta{Price: price, PriceKnown: true, Size: size}
}

// NewCountedDelta creates a Counted delta.
func NewCountedDelta(price, size fpdecimal.Decimal, count int64) Delta {
	return Delta{Price: price, PriceKnown: true, Size: size, Count: count}
}

// NewOrderDelta creates an order-indexed delta with a stated price.
func NewOrderDelta(price, size fpdecimal.Decimal, orderID string) Delta {
	return Delta{Price: price, PriceKnown: true, Size: size, OrderID: orderID}
}

// NewUnpricedOrderDelta creates an order-indexed delta that does not restate
// the order's price; the side resolves it from the order-id map.
func NewUnpricedOrderDelta(size fpdecimal.Decimal, orderID string) Delta {
	return Delta{Size: size, OrderID: orderID}
}

// validate rejects deltas whose shape does not match the strategy before any
// mutation happens.
func (s Strategy) validate(d Delta) error {
	if !s.indexed() {
		if !d.PriceKnown {
			return ErrUnknownPrice
		}
		if d.OrderID != "" {
			return ErrUnexpectedOrderID
		}
	} else if d.OrderID == "" {
		return ErrMissingOrderID
	}

	if s != Counted && d.Count != 0 {
		return ErrUnexpectedCount
	}

	switch s {
	case Absolute, OrderIndexed:
		if d.Size.LessThan(fpdecimal.Zero) {
			return ErrInvalidSize
		}
	case Counted:
		if d.Size.LessThan(fpdecimal.Zero) {
			return ErrInvalidSize
		}
		if d.Count < 0 {
			return ErrInvalidCount
		}
	}

	return nil
}
