package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLatLng(t *testing.T) {
	t.Run("valid pair", func(t *testing.T) {
		lat, lng, err := parseLatLng("34.111745,-118.113491")
		require.NoError(t, err)
		assert.InDelta(t, 34.111745, lat, 1e-9)
		assert.InDelta(t, -118.113491, lng, 1e-9)
	})

	t.Run("tolerates spaces", func(t *testing.T) {
		lat, lng, err := parseLatLng("34.1, -118.1")
		require.NoError(t, err)
		assert.InDelta(t, 34.1, lat, 1e-9)
		assert.InDelta(t, -118.1, lng, 1e-9)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"", "34.1", "34.1,-118.1,7", "north,west", "91,0", "0,181"} {
			_, _, err := parseLatLng(raw)
			assert.Error(t, err, raw)
		}
	})
}
