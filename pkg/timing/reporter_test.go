package timing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThresholdLinePadsToWidth(t *testing.T) {
	line := ThresholdLine(0, "Get()", 1200*time.Millisecond)

	assert.True(t, strings.HasPrefix(line, " --> Get():"))
	assert.True(t, strings.HasSuffix(line, "1.2"))
	assert.Equal(t, 100, len(strings.TrimSuffix(line, "1.2")))
}

func TestThresholdLineShrinksWithDepth(t *testing.T) {
	line := ThresholdLine(2, "Get()", time.Second)

	assert.True(t, strings.HasPrefix(line, "\t\t --> Get():"))
	assert.Equal(t, 94, len(strings.TrimSuffix(line, "1")))
}

func TestHeaderNeverTruncates(t *testing.T) {
	label := strings.Repeat("x", 120) + "()"
	line := ThresholdLine(0, label, time.Second)

	assert.Equal(t, " --> "+label+":1", line)
}

func TestHeaderNegativeDepth(t *testing.T) {
	line := ThresholdLine(-1, "Get()", time.Second)

	assert.True(t, strings.HasPrefix(line, " --> Get():"))
	assert.Equal(t, 103, len(strings.TrimSuffix(line, "1")))
}

func TestCumulativeLine(t *testing.T) {
	line := CumulativeLine(0, "Lookup()", 100*time.Millisecond, 300*time.Millisecond, 3)

	assert.True(t, strings.HasSuffix(line, "0.1 [300ms] x [3 @ 10/s]"), line)
}

func TestCumulativeLineZeroDuration(t *testing.T) {
	line := CumulativeLine(0, "Lookup()", 0, 0, 2)

	assert.True(t, strings.HasSuffix(line, "0 [0ms] x [2 @ ∞/s]"), line)
}
