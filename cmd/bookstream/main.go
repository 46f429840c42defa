package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/quanterre/bookstream/config"
	"github.com/quanterre/bookstream/pkg/book"
	"github.com/quanterre/bookstream/pkg/db/queue"
	"github.com/quanterre/bookstream/pkg/feed"
	"github.com/quanterre/bookstream/pkg/logging"
	"github.com/quanterre/bookstream/pkg/messaging"
	"github.com/quanterre/bookstream/pkg/messaging/kafka"
	"github.com/quanterre/bookstream/pkg/snapshot"
)

// publishedLevels bounds the ladder depth carried by outbound messages.
const publishedLevels = 20

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
		Output: os.Stdout,
	})
	logger := log.Logger

	strategy, err := book.ParseStrategy(cfg.Feed.Strategy)
	if err != nil {
		logger.Fatal().Err(err).Str("strategy", cfg.Feed.Strategy).Msg("Invalid book strategy")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	// One book and one applier per subscribed symbol
	appliers := make(map[string]*feed.Applier, len(cfg.Feed.Symbols))
	books := make(map[string]*book.OrderBook, len(cfg.Feed.Symbols))
	for _, symbol := range cfg.Feed.Symbols {
		b := book.NewOrderBook(symbol, strategy, cfg.Feed.Depth)
		books[symbol] = b
		appliers[symbol] = feed.NewApplier(b, logger)
	}

	// Kafka publisher (optional)
	var sender messaging.MessageSender
	if cfg.Kafka.Enabled {
		if cfg.Kafka.Publisher == "sarama" {
			sender, err = queue.NewPooledSender(queue.DefaultPoolSize)
		} else {
			sender, err = kafka.NewKafkaMessageSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Kafka sender")
		}
		defer sender.Close()

		// The consumer is for developer purpose which helps pretty print the
		// message in the queue.
		if consumer, err := kafka.SetupConsumer(ctx, logger); err == nil && consumer != nil {
			defer consumer.Close()
		}
	}

	// Redis snapshot store (optional)
	var store *snapshot.Store
	if cfg.Redis.Enabled {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create snapshot logger")
		}
		defer zapLogger.Sync()

		store = snapshot.NewStore(snapshot.GetRedisClient(), "", cfg.Redis.SnapshotTTL, zapLogger)
		bootstrapBooks(ctx, logger, store, books, appliers)
		go snapshotLoop(ctx, logger, store, books, cfg.Redis.SnapshotInterval)
	}

	// Stream raw frames from the feed
	frames := make(chan []byte, cfg.Feed.BufferSize)
	client := feed.NewClient(cfg.Feed.Endpoint, logger)
	go func() {
		if err := client.Run(ctx, cfg.Feed.Symbols, frames); err != nil && ctx.Err() == nil {
			logger.Fatal().Err(err).Msg("Feed stream terminated")
		}
	}()

	go consumeFrames(ctx, logger, frames, appliers, books, sender)

	logger.Info().
		Strs("symbols", cfg.Feed.Symbols).
		Str("strategy", strategy.String()).
		Int("depth", cfg.Feed.Depth).
		Msg("Book stream started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	if store != nil {
		saveAll(context.Background(), logger, store, books)
	}
	logger.Info().Msg("Shutdown complete")
}

// consumeFrames parses raw frames and routes each update to its applier,
// publishing the updated top of book after every applied update.
func consumeFrames(ctx context.Context, logger zerolog.Logger, frames <-chan []byte,
	appliers map[string]*feed.Applier, books map[string]*book.OrderBook, sender messaging.MessageSender) {
	for {
		var data []byte
		select {
		case <-ctx.Done():
			return
		case d, ok := <-frames:
			if !ok {
				return
			}
			data = d
		}

		update, err := feed.ParseDepthUpdate(data)
		if err != nil {
			logger.Warn().Err(err).Msg("Dropping unparseable frame")
			continue
		}

		applier, ok := appliers[update.Symbol]
		if !ok {
			logger.Debug().Str("symbol", update.Symbol).Msg("Update for unsubscribed symbol")
			continue
		}

		if err := applier.Apply(update); err != nil {
			// A gap flags the applier unsynced; the next update reseeds it.
			logger.Error().Err(err).Str("symbol", update.Symbol).Msg("Failed to apply update")
			continue
		}

		if sender != nil {
			msg := messaging.NewBookUpdateMessage(books[update.Symbol], publishedLevels)
			if err := sender.SendBookUpdate(msg); err != nil {
				logger.Error().Err(err).Str("symbol", update.Symbol).Msg("Failed to publish update")
			}
		}
	}
}

// bootstrapBooks seeds each book from its stored snapshot when one exists.
func bootstrapBooks(ctx context.Context, logger zerolog.Logger, store *snapshot.Store,
	books map[string]*book.OrderBook, appliers map[string]*feed.Applier) {
	for symbol, b := range books {
		if err := store.Load(ctx, b); err != nil {
			if err != snapshot.ErrNoSnapshot {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load snapshot")
			}
			continue
		}
		appliers[symbol].MarkSynced()
		logger.Info().
			Str("symbol", symbol).
			Int64("update_id", b.LastUpdateID()).
			Msg("Restored book from snapshot")
	}
}

// snapshotLoop persists all books on a fixed interval.
func snapshotLoop(ctx context.Context, logger zerolog.Logger, store *snapshot.Store,
	books map[string]*book.OrderBook, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveAll(ctx, logger, store, books)
		}
	}
}

func saveAll(ctx context.Context, logger zerolog.Logger, store *snapshot.Store, books map[string]*book.OrderBook) {
	for symbol, b := range books {
		if err := store.Save(ctx, b); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to save snapshot")
		}
	}
}
