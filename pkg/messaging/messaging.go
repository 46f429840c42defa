package messaging

import (
	"github.com/quanterre/bookstream/pkg/book"
)

// MessageSender defines an interface for publishing book updates.
// This keeps the book and feed packages decoupled from specific transports
// like Kafka in the queue package.
type MessageSender interface {
	SendBookUpdate(update *BookUpdateMessage) error
	Close() error
}

// Level is one ladder entry, decimals rendered as strings.
type Level struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookUpdateMessage is the message published after each applied depth
// update: top of book plus the visible ladders.
type BookUpdateMessage struct {
	Symbol   string  `json:"symbol"`
	UpdateID int64   `json:"updateID"`
	BestBid  string  `json:"bestBid,omitempty"`
	BestAsk  string  `json:"bestAsk,omitempty"`
	Spread   string  `json:"spread,omitempty"`
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
}

// NewBookUpdateMessage builds a message from the book's current state,
// truncating each ladder to maxLevels (0 = all visible levels).
func NewBookUpdateMessage(b *book.OrderBook, maxLevels int) *BookUpdateMessage {
	msg := &BookUpdateMessage{
		Symbol:   b.Symbol(),
		UpdateID: b.LastUpdateID(),
		Bids:     ladder(b.Bids(), maxLevels),
		Asks:     ladder(b.Asks(), maxLevels),
	}

	if bid, ok := b.BestBid(); ok {
		msg.BestBid = bid.Price.String()
	}
	if ask, ok := b.BestAsk(); ok {
		msg.BestAsk = ask.Price.String()
	}
	if spread, ok := b.Spread(); ok {
		msg.Spread = spread.String()
	}

	return msg
}

func ladder(side *book.BookSide, maxLevels int) []Level {
	levels := side.Levels()
	if maxLevels > 0 && len(levels) > maxLevels {
		levels = levels[:maxLevels]
	}
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{Price: l.Price.String(), Size: l.Size.String()}
	}
	return out
}
