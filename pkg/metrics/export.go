package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
)

// WriteText dumps the current metric families in the text exposition
// format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
