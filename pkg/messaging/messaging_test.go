package messaging

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanterre/bookstream/pkg/book"
)

func buildBook(t *testing.T) *book.OrderBook {
	t.Helper()
	b := book.NewOrderBook("BTCUSDT", book.Absolute, 0)
	err := b.ApplyUpdate(
		[]book.Delta{
			book.NewDelta(fpdecimal.FromInt(100), fpdecimal.FromInt(2)),
			book.NewDelta(fpdecimal.FromInt(99), fpdecimal.FromInt(1)),
		},
		[]book.Delta{
			book.NewDelta(fpdecimal.FromInt(101), fpdecimal.FromInt(3)),
		},
		9,
	)
	require.NoError(t, err)
	return b
}

func TestNewBookUpdateMessage(t *testing.T) {
	b := buildBook(t)

	msg := NewBookUpdateMessage(b, 0)

	assert.Equal(t, "BTCUSDT", msg.Symbol)
	assert.Equal(t, int64(9), msg.UpdateID)
	assert.Equal(t, "100", msg.BestBid)
	assert.Equal(t, "101", msg.BestAsk)
	assert.Equal(t, "1", msg.Spread)
	require.Len(t, msg.Bids, 2)
	assert.Equal(t, Level{Price: "100", Size: "2"}, msg.Bids[0])
	require.Len(t, msg.Asks, 1)
}

func TestNewBookUpdateMessage_TruncatesLadder(t *testing.T) {
	b := buildBook(t)

	msg := NewBookUpdateMessage(b, 1)

	assert.Len(t, msg.Bids, 1)
	assert.Len(t, msg.Asks, 1)
	assert.Equal(t, "100", msg.Bids[0].Price)
}

func TestNewBookUpdateMessage_EmptyBook(t *testing.T) {
	b := book.NewOrderBook("ETHUSDT", book.Absolute, 0)

	msg := NewBookUpdateMessage(b, 0)

	assert.Empty(t, msg.BestBid)
	assert.Empty(t, msg.BestAsk)
	assert.Empty(t, msg.Spread)
	assert.Empty(t, msg.Bids)
}

func TestMockMessageSender_Records(t *testing.T) {
	mock := NewMockMessageSender()

	require.NoError(t, mock.SendBookUpdate(&BookUpdateMessage{Symbol: "BTCUSDT"}))
	require.NoError(t, mock.Close())

	require.Len(t, mock.Sent, 1)
	assert.Equal(t, "BTCUSDT", mock.Sent[0].Symbol)
}
