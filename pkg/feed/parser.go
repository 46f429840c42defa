package feed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/valyala/fastjson"

	"github.com/quanterre/bookstream/pkg/book"
)

// Errors
var (
	ErrMalformedEvent = errors.New("malformed depth event")
	ErrNotDepthEvent  = errors.New("not a depth event")
)

// DepthUpdate is one normalized diff-depth event: a batch of bid and ask
// deltas bracketed by the exchange's sequence ids.
type DepthUpdate struct {
	Symbol        string
	EventTime     int64
	FirstUpdateID int64
	FinalUpdateID int64
	Bids          []book.Delta
	Asks          []book.Delta
}

// parserPool reuses fastjson parsers across events to keep the hot path
// allocation-free.
var parserPool = sync.Pool{
	New: func() interface{} {
		return &fastjson.Parser{}
	},
}

// ParseDepthUpdate decodes a raw depth event into book deltas. It accepts
// both the direct event format and the combined-stream wrapper
// {"stream":"<symbol>@depth","data":{...}}.
func ParseDepthUpdate(data []byte) (*DepthUpdate, error) {
	p := parserPool.Get().(*fastjson.Parser)
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if v.Exists("stream") && v.Exists("data") {
		v = v.Get("data")
	}

	if string(v.GetStringBytes("e")) != "depthUpdate" {
		return nil, ErrNotDepthEvent
	}

	update := &DepthUpdate{
		Symbol:        string(v.GetStringBytes("s")),
		EventTime:     v.GetInt64("E"),
		FirstUpdateID: v.GetInt64("U"),
		FinalUpdateID: v.GetInt64("u"),
	}
	if update.Symbol == "" {
		return nil, ErrMalformedEvent
	}

	update.Bids, err = parseDeltas(v.Get("b"))
	if err != nil {
		return nil, err
	}
	update.Asks, err = parseDeltas(v.Get("a"))
	if err != nil {
		return nil, err
	}

	return update, nil
}

// parseDeltas converts an array of [price, size] string pairs.
func parseDeltas(v *fastjson.Value) ([]book.Delta, error) {
	if v == nil {
		return nil, nil
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	deltas := make([]book.Delta, 0, len(arr))
	for _, entry := range arr {
		pair, err := entry.Array()
		if err != nil || len(pair) < 2 {
			return nil, ErrMalformedEvent
		}
		price, err := fpdecimal.FromString(string(pair[0].GetStringBytes()))
		if err != nil {
			return nil, fmt.Errorf("%w: bad price: %v", ErrMalformedEvent, err)
		}
		size, err := fpdecimal.FromString(string(pair[1].GetStringBytes()))
		if err != nil {
			return nil, fmt.Errorf("%w: bad size: %v", ErrMalformedEvent, err)
		}
		deltas = append(deltas, book.NewDelta(price, size))
	}
	return deltas, nil
}
