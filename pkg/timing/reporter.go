package timing

import (
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Reporter writes a finished line to the channel named by category. An
// empty category means the reporter's default channel. Implementations
// must not fail the caller.
type Reporter interface {
	Emit(category, line string)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(category, line string)

func (f ReporterFunc) Emit(category, line string) {
	f(category, line)
}

// Discard drops every line
var Discard Reporter = ReporterFunc(func(string, string) {})

const (
	headerWidth   = 100
	widthPerDepth = 3
	arrow         = " --> "
)

// header renders the indented label padded to a width that shrinks with
// depth. It never truncates.
func header(depth int, label string) string {
	indent := indentFor(depth)
	head := indent + arrow + label + ":"

	width := headerWidth - widthPerDepth*depth
	// tabs take one column each
	used := len(indent) + runewidth.StringWidth(arrow+label+":")
	if used >= width {
		return head
	}
	return head + strings.Repeat(" ", width-used)
}

// ThresholdLine composes the line for a single slow call
func ThresholdLine(depth int, label string, elapsed time.Duration) string {
	return header(depth, label) + FormatSeconds(elapsed)
}

// CumulativeLine composes the line for a periodic cumulative report
func CumulativeLine(depth int, label string, elapsed, cumulative time.Duration, count int64) string {
	var b strings.Builder
	b.WriteString(header(depth, label))
	b.WriteString(FormatSeconds(elapsed))
	b.WriteString(" [")
	b.WriteString(FormatFriendly(cumulative))
	b.WriteString("] x [")
	b.WriteString(strconv.FormatInt(count, 10))
	b.WriteString(" @ ")
	b.WriteString(FormatRate(Rate(count, cumulative)))
	b.WriteString("/s]")
	return b.String()
}
