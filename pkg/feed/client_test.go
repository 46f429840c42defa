package feed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestClient_StreamURL(t *testing.T) {
	c := NewClient("", zerolog.Nop())

	url := c.streamURL([]string{"BTCUSDT", "ethusdt"})
	assert.Equal(t,
		"wss://stream.binance.com:9443/stream?streams=btcusdt@depth/ethusdt@depth",
		url)
}

func TestClient_CustomEndpoint(t *testing.T) {
	c := NewClient("wss://example.test/stream", zerolog.Nop())

	url := c.streamURL([]string{"BTCUSDT"})
	assert.Equal(t, "wss://example.test/stream?streams=btcusdt@depth", url)
}
