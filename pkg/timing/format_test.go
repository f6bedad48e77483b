package timing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1200 * time.Millisecond, "1.2"},
		{300 * time.Millisecond, "0.3"},
		{2 * time.Second, "2"},
		{3500 * time.Microsecond, "0.0035"},
		{0, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSeconds(tt.in), "FormatSeconds(%s)", tt.in)
	}
}

func TestFormatFriendly(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{300 * time.Millisecond, "300ms"},
		{1500 * time.Microsecond, "1.5ms"},
		{4200 * time.Millisecond, "4.2s"},
		{2 * time.Minute, "2m"},
		{time.Hour + 2*time.Minute + 3500*time.Millisecond, "1h 2m 3.5s"},
		{-300 * time.Millisecond, "-300ms"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFriendly(tt.in), "FormatFriendly(%s)", tt.in)
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "10", FormatRate(10))
	assert.Equal(t, "3.33", FormatRate(10.0/3.0))
	assert.Equal(t, "1,234.5", FormatRate(1234.5))
	assert.Equal(t, Infinity, FormatRate(math.Inf(1)))
	assert.Equal(t, Infinity, FormatRate(math.NaN()))
}

func TestRateWithZeroTotal(t *testing.T) {
	assert.True(t, math.IsInf(Rate(3, 0), 1))
	assert.InDelta(t, 10.0, Rate(3, 300*time.Millisecond), 1e-9)
}
