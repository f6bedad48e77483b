// Package sink provides timing.Reporter implementations.
package sink

import (
	"io"
	"sync"

	"github.com/psantana5/calltiming/pkg/logging"
	"github.com/psantana5/calltiming/pkg/timing"
)

var (
	_ timing.Reporter = (*Writer)(nil)
	_ timing.Reporter = (*Logger)(nil)
	_ timing.Reporter = (*Channels)(nil)
	_ timing.Reporter = (*Throttle)(nil)
	_ timing.Reporter = Multi(nil)
)

// Writer prints "category: line" to an io.Writer, the way a trace
// listener does. Lines without a category use the default category, or
// are printed bare when that is empty too.
type Writer struct {
	mu              sync.Mutex
	w               io.Writer
	defaultCategory string
}

// NewWriter creates a Writer sink
func NewWriter(w io.Writer, defaultCategory string) *Writer {
	return &Writer{w: w, defaultCategory: defaultCategory}
}

func (s *Writer) Emit(category, line string) {
	if category == "" {
		category = s.defaultCategory
	}

	buf := make([]byte, 0, len(category)+len(line)+3)
	if category != "" {
		buf = append(buf, category...)
		buf = append(buf, ": "...)
	}
	buf = append(buf, line...)
	buf = append(buf, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(buf)
}

// Logger writes each line at the configured level with the category as a
// field
type Logger struct {
	log             *logging.Logger
	level           logging.Level
	defaultCategory string
}

// NewLogger creates a sink on top of a project logger
func NewLogger(log *logging.Logger, level logging.Level, defaultCategory string) *Logger {
	return &Logger{log: log, level: level, defaultCategory: defaultCategory}
}

func (s *Logger) Emit(category, line string) {
	if category == "" {
		category = s.defaultCategory
	}
	fields := map[string]interface{}{"category": category}

	switch s.level {
	case logging.DEBUG:
		s.log.Debug(line, fields)
	case logging.WARN:
		s.log.Warn(line, fields)
	case logging.ERROR:
		s.log.Error(line, fields)
	default:
		s.log.Info(line, fields)
	}
}

// Multi sends each line to every reporter in order
type Multi []timing.Reporter

func (m Multi) Emit(category, line string) {
	for _, r := range m {
		r.Emit(category, line)
	}
}
