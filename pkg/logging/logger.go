package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string, defaulting to INFO
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// output is shared by a logger and everything derived from it with
// WithField, so rotation and writes stay serialized.
type output struct {
	mu      sync.Mutex
	w       io.Writer
	file    *os.File
	console io.Writer
}

func (o *output) write(p []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = o.w.Write(p)
}

// Logger writes leveled lines as text or JSON
type Logger struct {
	level      Level
	jsonFormat bool
	out        *output
	fields     map[string]interface{}
	name       string
	now        func() time.Time
	exit       func(int)
}

// NewLogger creates a logger writing to stdout
func NewLogger(level Level, jsonFormat bool) *Logger {
	return &Logger{
		level:      level,
		jsonFormat: jsonFormat,
		out:        &output{w: os.Stdout, console: os.Stdout},
		fields:     make(map[string]interface{}),
		now:        time.Now,
		exit:       os.Exit,
	}
}

// NewFileLogger creates a logger that writes to <base>/calltiming/<name>.log
// and to stderr. The base is /var/log when writable, ./logs otherwise.
func NewFileLogger(name string, level Level, jsonFormat bool) (*Logger, error) {
	l, err := OpenFileLogger(LogPath(name), level, jsonFormat)
	if err != nil {
		return nil, err
	}
	l.name = name
	return l, nil
}

// OpenFileLogger writes to the file at path as well as stderr
func OpenFileLogger(logPath string, level Level, jsonFormat bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(logPath), err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	l := NewLogger(level, jsonFormat)
	l.out = &output{
		w:       io.MultiWriter(f, os.Stderr),
		file:    f,
		console: os.Stderr,
	}
	l.Debug("logger initialized", map[string]interface{}{"path": logPath})
	return l, nil
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	l.out.w = w
	l.out.console = w
	l.out.mu.Unlock()
}

// Level returns the minimum level written
func (l *Logger) Level() Level {
	return l.level
}

// Enabled reports whether level would be written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Entry is one JSON log line
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	var b strings.Builder
	if l.jsonFormat {
		entry := Entry{
			Timestamp: l.now().Format(time.RFC3339Nano),
			Level:     level.String(),
			Message:   message,
			Fields:    merged,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		b.Write(data)
	} else {
		fmt.Fprintf(&b, "[%s] %s: %s", l.now().Format("2006-01-02 15:04:05"), level.String(), message)
		writeFields(&b, merged)
	}
	b.WriteByte('\n')
	l.out.write([]byte(b.String()))

	if level == FATAL {
		l.exit(1)
	}
}

func writeFields(b *strings.Builder, fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, fields[k])
	}
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DEBUG, message, first(fields))
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(INFO, message, first(fields))
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WARN, message, first(fields))
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	l.log(ERROR, message, first(fields))
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FATAL, message, first(fields))
}

// WithField returns a logger that adds key to every line
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	clone := *l
	clone.fields = fields
	return &clone
}

// Close closes the log file if opened
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file == nil {
		return nil
	}
	err := l.out.file.Close()
	l.out.file = nil
	l.out.w = l.out.console
	return err
}

// RotateIfNeeded moves the log file aside once it exceeds maxSize bytes
// and reopens a fresh one at the same path.
func (l *Logger) RotateIfNeeded(maxSize int64) error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file == nil {
		return nil
	}
	info, err := l.out.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() <= maxSize {
		return nil
	}

	path := l.out.file.Name()
	l.out.file.Close()
	l.out.file = nil
	l.out.w = l.out.console

	backup := path + "." + l.now().Format("20060102-150405")
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("failed to rotate %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", path, err)
	}
	l.out.file = f
	l.out.w = io.MultiWriter(f, l.out.console)
	return nil
}

// StartRotation checks the file size every interval and rotates past
// maxSize. The returned function stops the checks and waits for the
// last one to finish.
func (l *Logger) StartRotation(interval time.Duration, maxSize int64) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := l.RotateIfNeeded(maxSize); err != nil {
					l.Error("log rotation failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}

// isWritable checks if directory is writable
func isWritable(path string) bool {
	if err := os.MkdirAll(path, 0755); err != nil {
		return false
	}
	testFile := filepath.Join(path, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)
	return true
}

// LogPath returns where NewFileLogger writes the log called name
func LogPath(name string) string {
	baseDir := "/var/log/calltiming"
	if !isWritable(baseDir) {
		baseDir = filepath.Join(".", "logs", "calltiming")
	}
	return filepath.Join(baseDir, name+".log")
}
