package book

import "github.com/nikolaydubina/fpdecimal"

// applyAbsolute overwrites the size at a price; zero size deletes the level.
// Deleting a price that is not stored is a no-op.
func (s *BookSide) applyAbsolute(d Delta) {
	key := s.side.key(d.Price)
	i := s.locate(key)
	if d.Size.GreaterThan(fpdecimal.Zero) {
		if s.matchAt(i, key) {
			s.levels[i].Size = d.Size
			return
		}
		s.insertAt(i, PriceLevel{Price: d.Price, Size: d.Size}, key)
		return
	}
	if s.matchAt(i, key) {
		s.removeAt(i)
	}
}

// applyCounted upserts only when both size and count are nonzero; a zero in
// either field removes the level.
func (s *BookSide) applyCounted(d Delta) {
	key := s.side.key(d.Price)
	i := s.locate(key)
	if d.Size.GreaterThan(fpdecimal.Zero) && d.Count > 0 {
		if s.matchAt(i, key) {
			s.levels[i].Size = d.Size
			s.levels[i].Count = d.Count
			return
		}
		s.insertAt(i, PriceLevel{Price: d.Price, Size: d.Size, Count: d.Count}, key)
		return
	}
	if s.matchAt(i, key) {
		s.removeAt(i)
	}
}

// applyIncremental adds the signed delta size to the stored size at that
// price; a non-positive result deletes the level.
func (s *BookSide) applyIncremental(d Delta) {
	key := s.side.key(d.Price)
	i := s.locate(key)
	match := s.matchAt(i, key)

	size := d.Size
	if match {
		size = size.Add(s.levels[i].Size)
	}

	if size.GreaterThan(fpdecimal.Zero) {
		if match {
			s.levels[i].Size = size
			return
		}
		s.insertAt(i, PriceLevel{Price: d.Price, Size: size}, key)
		return
	}
	if match {
		s.removeAt(i)
	}
}

// applyOrderIndexed identifies levels by order id. When the delta does not
// restate the price, the key recorded in the id map resolves it; the stored
// price is always re-derived from the resolved key so a later unpriced
// update still recovers it. Each price holds at most one order: storing an
// order at a price occupied by another evicts the resident level along with
// its id entry. With incremental set, a positive size acts as an adjustment
// to the level currently at the resolved key.
func (s *BookSide) applyOrderIndexed(d Delta, incremental bool) error {
	oldKey, known := s.ids[d.OrderID]

	key := fpdecimal.Zero
	hasKey := d.PriceKnown
	if hasKey {
		key = s.side.key(d.Price)
	} else if known {
		key = oldKey
		hasKey = true
	}

	size := d.Size
	if incremental && known && size.GreaterThan(fpdecimal.Zero) {
		if i := s.locate(key); s.matchAt(i, key) {
			size = size.Add(s.levels[i].Size)
		}
	}

	if size.GreaterThan(fpdecimal.Zero) {
		if !hasKey {
			// new order id without a stated price: nothing to resolve against
			return ErrUnknownPrice
		}
		level := PriceLevel{Price: s.side.price(key), Size: size, OrderID: d.OrderID}
		if known {
			if key.Equal(oldKey) {
				s.levels[s.locate(oldKey)] = level
				return nil
			}
			// the order moved to a different price: drop its old level
			s.removeAt(s.locate(oldKey))
		}
		// one level per key: a resident level at this price belongs to a
		// different order and is evicted so keys stay unique
		if i := s.locate(key); s.matchAt(i, key) {
			delete(s.ids, s.levels[i].OrderID)
			s.levels[i] = level
		} else {
			s.insertAt(i, level, key)
		}
		s.ids[d.OrderID] = key
		return nil
	}

	// zero or negative size removes by id; unknown ids are a no-op
	if known {
		s.removeAt(s.locate(oldKey))
		delete(s.ids, d.OrderID)
	}
	return nil
}
