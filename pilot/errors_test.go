package pilot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		ok       bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}

	for _, tt := range tests {
		err := ValidateCoordinates(tt.lat, tt.lon)
		if tt.ok {
			assert.NoError(t, err, "%v,%v", tt.lat, tt.lon)
		} else {
			assert.ErrorIs(t, err, ErrValidation, "%v,%v", tt.lat, tt.lon)
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, err := ParseCoordinates(" 47.6062 ", "-122.3321")
	require.NoError(t, err)
	assert.Equal(t, 47.6062, lat)
	assert.Equal(t, -122.3321, lon)

	_, _, err = ParseCoordinates("north", "0")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "not a number")

	_, _, err = ParseCoordinates("0", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = ParseCoordinates("-91", "0")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "outside")
}
