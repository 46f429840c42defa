package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quanterre/bookstream/pkg/book"
)

// ErrNoSnapshot is returned by Load when no snapshot exists for the symbol.
var ErrNoSnapshot = errors.New("no snapshot stored")

// RedisOptions represents configuration options for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

var defaultOptions = &RedisOptions{
	Addr:     "localhost:6379",
	Password: "",
	DB:       0,
}

// SetDefaultRedisOptions sets the default options for Redis connections
func SetDefaultRedisOptions(options *RedisOptions) {
	defaultOptions = options
}

// GetRedisClient creates a new Redis client using the default options
func GetRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     defaultOptions.Addr,
		Password: defaultOptions.Password,
		DB:       defaultOptions.DB,
	})
}

// levelRecord is one serialized ladder entry; decimals travel as strings to
// avoid float round-trips.
type levelRecord struct {
	Price   string `json:"price"`
	Size    string `json:"size"`
	Count   int64  `json:"count,omitempty"`
	OrderID string `json:"orderID,omitempty"`
}

// bookSnapshot is the JSON payload stored per symbol.
type bookSnapshot struct {
	Symbol   string        `json:"symbol"`
	UpdateID int64         `json:"updateID"`
	Bids     []levelRecord `json:"bids"`
	Asks     []levelRecord `json:"asks"`
	SavedAt  time.Time     `json:"savedAt"`
}

// Store persists order-book snapshots in Redis. Snapshots capture the
// visible ladders; a book restored from one replays them through the
// ordinary update path.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a snapshot store. ttl zero keeps snapshots forever.
func NewStore(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = "bookstream"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *Store) key(symbol string) string {
	return fmt.Sprintf("%s:book:%s", s.prefix, symbol)
}

// Save serializes the book and writes it under <prefix>:book:<symbol>.
func (s *Store) Save(ctx context.Context, b *book.OrderBook) error {
	snap := bookSnapshot{
		Symbol:   b.Symbol(),
		UpdateID: b.LastUpdateID(),
		Bids:     toRecords(b.Bids().Levels()),
		Asks:     toRecords(b.Asks().Levels()),
		SavedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key(b.Symbol()), payload, s.ttl).Err(); err != nil {
		s.logger.Error("failed to save snapshot",
			zap.String("symbol", b.Symbol()),
			zap.Error(err))
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("symbol", b.Symbol()),
		zap.Int64("update_id", snap.UpdateID),
		zap.Int("bid_levels", len(snap.Bids)),
		zap.Int("ask_levels", len(snap.Asks)))
	return nil
}

// Load reads the stored snapshot for the book's symbol and replays it into
// the book.
func (s *Store) Load(ctx context.Context, b *book.OrderBook) error {
	payload, err := s.client.Get(ctx, s.key(b.Symbol())).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNoSnapshot
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap bookSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	bids, err := toDeltas(snap.Bids)
	if err != nil {
		return err
	}
	asks, err := toDeltas(snap.Asks)
	if err != nil {
		return err
	}

	if err := b.ApplySnapshot(bids, asks, snap.UpdateID); err != nil {
		return fmt.Errorf("failed to replay snapshot: %w", err)
	}

	s.logger.Info("snapshot restored",
		zap.String("symbol", b.Symbol()),
		zap.Int64("update_id", snap.UpdateID))
	return nil
}

// Delete removes the stored snapshot for a symbol.
func (s *Store) Delete(ctx context.Context, symbol string) error {
	return s.client.Del(ctx, s.key(symbol)).Err()
}

func toRecords(levels []book.PriceLevel) []levelRecord {
	out := make([]levelRecord, len(levels))
	for i, l := range levels {
		out[i] = levelRecord{
			Price:   l.Price.String(),
			Size:    l.Size.String(),
			Count:   l.Count,
			OrderID: l.OrderID,
		}
	}
	return out
}

func toDeltas(records []levelRecord) ([]book.Delta, error) {
	out := make([]book.Delta, len(records))
	for i, r := range records {
		price, err := fpdecimal.FromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("bad snapshot price %q: %w", r.Price, err)
		}
		size, err := fpdecimal.FromString(r.Size)
		if err != nil {
			return nil, fmt.Errorf("bad snapshot size %q: %w", r.Size, err)
		}
		out[i] = book.Delta{
			Price:      price,
			PriceKnown: true,
			Size:       size,
			Count:      r.Count,
			OrderID:    r.OrderID,
		}
	}
	return out, nil
}
