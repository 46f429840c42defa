package kafka

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quanterre/bookstream/pkg/db/queue"
	"github.com/quanterre/bookstream/pkg/messaging"
)

// SetupConsumer initializes and starts the Kafka consumer that echoes
// published book updates into the log. It exists for development: a quick
// way to see what downstream consumers receive.
func SetupConsumer(ctx context.Context, logger zerolog.Logger) (*queue.QueueMessageConsumer, error) {
	kafkaConsumer, err := queue.NewQueueMessageConsumer()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create Kafka consumer - continuing without Kafka support")
		return nil, err
	}

	// Start Kafka consumer in a goroutine
	go func() {
		logger.Info().Msg("Starting Kafka consumer")
		err := kafkaConsumer.ConsumeBookUpdates(func(msg *messaging.BookUpdateMessage) error {
			logger.Info().
				Str("symbol", msg.Symbol).
				Int64("update_id", msg.UpdateID).
				Str("best_bid", msg.BestBid).
				Str("best_ask", msg.BestAsk).
				Str("spread", msg.Spread).
				Int("bid_levels", len(msg.Bids)).
				Int("ask_levels", len(msg.Asks)).
				Msg("Received book update")
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	return kafkaConsumer, nil
}
