package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanterre/bookstream/pkg/messaging"
)

func TestQueueMessageSender_SendBookUpdate(t *testing.T) {
	mock := &mockProducer{}
	sender := &QueueMessageSender{producer: mock}

	update := &messaging.BookUpdateMessage{
		Symbol:   "BTCUSDT",
		UpdateID: 42,
		BestBid:  "100",
		BestAsk:  "101",
		Spread:   "1",
		Bids:     []messaging.Level{{Price: "100", Size: "2"}},
		Asks:     []messaging.Level{{Price: "101", Size: "3"}},
	}

	require.NoError(t, sender.SendBookUpdate(update))
	require.Len(t, mock.sentMessages, 1)

	msg := mock.sentMessages[0]
	assert.Equal(t, topic, msg.Topic)

	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", string(key))

	payload, err := msg.Value.Encode()
	require.NoError(t, err)

	var decoded messaging.BookUpdateMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, update.Symbol, decoded.Symbol)
	assert.Equal(t, update.UpdateID, decoded.UpdateID)
	assert.Equal(t, update.Bids, decoded.Bids)
}

func TestQueueMessageSender_Close(t *testing.T) {
	mock := &mockProducer{}
	sender := &QueueMessageSender{producer: mock}

	require.NoError(t, sender.Close())
	assert.True(t, mock.closed)
}

func TestPooledSender_SpreadsAcrossProducers(t *testing.T) {
	var mocks []*mockProducer
	pool, err := newPooledSender(2, func() (messaging.MessageSender, error) {
		m := &mockProducer{}
		mocks = append(mocks, m)
		return &QueueMessageSender{producer: m}, nil
	})
	require.NoError(t, err)
	require.Len(t, mocks, 2)

	for i := 0; i < 4; i++ {
		require.NoError(t, pool.SendBookUpdate(&messaging.BookUpdateMessage{Symbol: "BTCUSDT"}))
	}

	total := 0
	for _, m := range mocks {
		total += len(m.sentMessages)
	}
	assert.Equal(t, 4, total, "every publish must reach exactly one producer")
}

func TestPooledSender_CloseClosesAllProducers(t *testing.T) {
	var mocks []*mockProducer
	pool, err := newPooledSender(3, func() (messaging.MessageSender, error) {
		m := &mockProducer{}
		mocks = append(mocks, m)
		return &QueueMessageSender{producer: m}, nil
	})
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	for i, m := range mocks {
		assert.True(t, m.closed, "producer %d left open", i)
	}
}

func TestPooledSender_BuildFailureClosesPartialPool(t *testing.T) {
	first := &mockProducer{}
	calls := 0
	_, err := newPooledSender(2, func() (messaging.MessageSender, error) {
		calls++
		if calls > 1 {
			return nil, assert.AnError
		}
		return &QueueMessageSender{producer: first}, nil
	})

	require.Error(t, err)
	assert.True(t, first.closed, "already-built producer must be closed on failure")
}

func TestSetBrokerAndTopic(t *testing.T) {
	oldBrokers, oldTopic := brokerList, topic
	defer func() {
		brokerList, topic = oldBrokers, oldTopic
	}()

	SetBrokerList("kafka-1:9092")
	SetTopic("depth-updates")

	assert.Equal(t, "kafka-1:9092", brokerList)
	assert.Equal(t, "depth-updates", topic)
}
