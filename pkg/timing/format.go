package timing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Infinity is what FormatRate renders for a rate that cannot be computed
// because no measurable time has accumulated yet.
const Infinity = "∞"

// FormatSeconds renders d as plain decimal seconds with at most four
// fractional digits and no trailing zeros, e.g. "1.2" or "0.0035".
func FormatSeconds(d time.Duration) string {
	return humanize.FtoaWithDigits(d.Seconds(), 4)
}

// FormatFriendly renders a duration for people: "350ms", "4.2s" or
// "1h 2m 3.5s".
func FormatFriendly(d time.Duration) string {
	if d < 0 {
		return "-" + FormatFriendly(-d)
	}

	switch {
	case d < time.Second:
		return humanize.FtoaWithDigits(float64(d)/float64(time.Millisecond), 2) + "ms"
	case d < time.Minute:
		return humanize.FtoaWithDigits(d.Seconds(), 3) + "s"
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	if d > 0 {
		parts = append(parts, humanize.FtoaWithDigits(d.Seconds(), 3)+"s")
	}
	return strings.Join(parts, " ")
}

// FormatRate renders invocations per second. Infinite or undefined rates
// render as Infinity.
func FormatRate(rate float64) string {
	if math.IsInf(rate, 0) || math.IsNaN(rate) {
		return Infinity
	}
	return humanize.CommafWithDigits(math.Round(rate*100)/100, 2)
}

// Rate returns count per second of total. A zero total gives +Inf rather
// than a division fault.
func Rate(count int64, total time.Duration) float64 {
	if total <= 0 {
		return math.Inf(1)
	}
	return float64(count) / total.Seconds()
}
