package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the combined-stream websocket base URL.
const DefaultEndpoint = "wss://stream.binance.com:9443/stream"

// readLimit caps a single frame; depth diffs stay well under this.
const readLimit = 1 << 17

// Client consumes a combined diff-depth websocket stream and hands raw
// frames to a channel. Parsing happens downstream so a slow consumer never
// stalls the socket reads more than the channel buffer allows.
type Client struct {
	endpoint string
	logger   zerolog.Logger
	redial   *rate.Limiter
}

// NewClient creates a stream client for the given websocket endpoint.
func NewClient(endpoint string, logger zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		logger:   logger.With().Str("component", "feed").Logger(),
		// one reconnect attempt per second, small burst for flappy starts
		redial: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// streamURL builds the combined-stream URL for the symbols. Stream names
// must be lowercase.
func (c *Client) streamURL(symbols []string) string {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = fmt.Sprintf("%s@depth", strings.ToLower(s))
	}
	return c.endpoint + "?streams=" + strings.Join(streams, "/")
}

// Run subscribes to the depth streams and pushes raw frames to out until the
// context is canceled, reconnecting on broken connections. It closes out on
// return.
func (c *Client) Run(ctx context.Context, symbols []string, out chan<- []byte) error {
	defer close(out)

	url := c.streamURL(symbols)
	for {
		if err := c.redial.Wait(ctx); err != nil {
			return err
		}

		err := c.streamOnce(ctx, url, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Str("url", url).Msg("Stream closed, reconnecting")
	}
}

// streamOnce dials the stream and reads frames until the connection drops.
func (c *Client) streamOnce(ctx context.Context, url string, out chan<- []byte) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	conn.SetReadLimit(readLimit)
	c.logger.Info().Str("url", url).Msg("Connected to depth stream")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		select {
		case out <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
