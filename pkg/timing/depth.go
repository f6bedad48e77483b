package timing

import (
	"strings"
	"sync/atomic"
)

// DepthCounter tracks how deeply instrumented calls are currently nested.
// Sites that track depth share one counter so nested traces indent.
//
// The value read while rendering is best-effort: other goroutines may move
// it between the read and the write of a line.
type DepthCounter struct {
	depth atomic.Int64
}

// NewDepthCounter creates a counter at depth zero
func NewDepthCounter() *DepthCounter {
	return &DepthCounter{}
}

// Increase adds one level
func (c *DepthCounter) Increase() *DepthCounter {
	c.depth.Add(1)
	return c
}

// Decrease removes one level. Unbalanced calls may drive the counter below
// zero; Indent clamps for display.
func (c *DepthCounter) Decrease() *DepthCounter {
	c.depth.Add(-1)
	return c
}

// Depth returns the current raw depth
func (c *DepthCounter) Depth() int {
	return int(c.depth.Load())
}

// Indent renders one tab per level, never fewer than zero
func (c *DepthCounter) Indent() string {
	return indentFor(c.Depth())
}

func (c *DepthCounter) String() string {
	return c.Indent()
}

func indentFor(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("\t", depth)
}

var sharedDepth = NewDepthCounter()

// SharedDepth returns the process-wide counter used when a Registry is not
// given one of its own.
func SharedDepth() *DepthCounter {
	return sharedDepth
}
