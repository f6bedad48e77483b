package logging

import (
	"fmt"
	"path/filepath"
)

// GenerateLogrotateConfig renders a logrotate stanza for the trace logs
// in dir. Install it under /etc/logrotate.d/.
func GenerateLogrotateConfig(dir string, keepDays int) string {
	if keepDays <= 0 {
		keepDays = 14
	}
	return fmt.Sprintf(`# Logrotate configuration for calltiming trace logs
# Install: sudo cp this file to /etc/logrotate.d/calltiming

%s {
    daily
    rotate %d
    compress
    delaycompress
    missingok
    notifempty
    # the writer keeps its descriptor open
    copytruncate
}
`, filepath.Join(dir, "*.log"), keepDays)
}
