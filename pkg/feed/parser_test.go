package feed

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directEvent = `{
	"e": "depthUpdate",
	"E": 1672515782136,
	"s": "BTCUSDT",
	"U": 157,
	"u": 160,
	"b": [["25000.50", "10"], ["24999.75", "0"]],
	"a": [["25001.25", "100"]]
}`

const combinedEvent = `{"stream":"btcusdt@depth","data":` + directEvent + `}`

func TestParseDepthUpdate_Direct(t *testing.T) {
	u, err := ParseDepthUpdate([]byte(directEvent))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", u.Symbol)
	assert.Equal(t, int64(1672515782136), u.EventTime)
	assert.Equal(t, int64(157), u.FirstUpdateID)
	assert.Equal(t, int64(160), u.FinalUpdateID)

	require.Len(t, u.Bids, 2)
	assert.True(t, u.Bids[0].Price.Equal(fpdecimal.FromFloat(25000.50)))
	assert.True(t, u.Bids[0].Size.Equal(fpdecimal.FromInt(10)))
	assert.True(t, u.Bids[1].Size.Equal(fpdecimal.Zero), "zero size survives as a deletion delta")

	require.Len(t, u.Asks, 1)
	assert.True(t, u.Asks[0].Price.Equal(fpdecimal.FromFloat(25001.25)))
}

func TestParseDepthUpdate_CombinedStream(t *testing.T) {
	u, err := ParseDepthUpdate([]byte(combinedEvent))
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", u.Symbol)
	assert.Len(t, u.Bids, 2)
}

func TestParseDepthUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"invalid json", `{"e":`, ErrMalformedEvent},
		{"wrong event type", `{"e":"trade","s":"BTCUSDT"}`, ErrNotDepthEvent},
		{"missing symbol", `{"e":"depthUpdate","u":1}`, ErrMalformedEvent},
		{"short pair", `{"e":"depthUpdate","s":"X","b":[["1"]]}`, ErrMalformedEvent},
		{"bad price", `{"e":"depthUpdate","s":"X","b":[["abc","1"]]}`, ErrMalformedEvent},
		{"bad size", `{"e":"depthUpdate","s":"X","a":[["1","abc"]]}`, ErrMalformedEvent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDepthUpdate([]byte(tc.payload))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParseDepthUpdate_EmptySides(t *testing.T) {
	u, err := ParseDepthUpdate([]byte(`{"e":"depthUpdate","s":"BTCUSDT","U":1,"u":2}`))
	require.NoError(t, err)
	assert.Empty(t, u.Bids)
	assert.Empty(t, u.Asks)
}
