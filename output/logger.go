package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger provides verbosity-controlled logging for the pipeline.
// Output goes to stderr to keep stdout clean for results.
type Logger struct {
	verbosity VerbosityLevel
	writer    io.Writer
	startTime time.Time
	timings   map[string]time.Duration
}

// NewLogger creates a logger with the specified verbosity.
func NewLogger(verbosity VerbosityLevel) *Logger {
	return NewLoggerWithWriter(verbosity, os.Stderr)
}

// NewLoggerWithWriter creates a logger with a custom output writer.
// Primarily used for testing.
func NewLoggerWithWriter(verbosity VerbosityLevel, w io.Writer) *Logger {
	return &Logger{
		verbosity: verbosity,
		writer:    w,
		startTime: time.Now(),
		timings:   make(map[string]time.Duration),
	}
}

// Progress logs high-level pipeline progress, e.g. "Processing 12 files".
func (l *Logger) Progress(format string, args ...interface{}) {
	if l.verbosity >= VerbosityDefault {
		fmt.Fprintf(l.writer, "CodeSense: %s\n", fmt.Sprintf(format, args...))
	}
}

// Statistic logs counts and metrics, e.g. "Graph: 42 nodes, 61 edges".
func (l *Logger) Statistic(format string, args ...interface{}) {
	if l.verbosity >= VerbosityDefault {
		fmt.Fprintf(l.writer, "CodeSense: %s\n", fmt.Sprintf(format, args...))
	}
}

// Debug logs per-file diagnostics with an elapsed-time prefix.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbosity >= VerbosityDebug {
		elapsed := time.Since(l.startTime)
		fmt.Fprintf(l.writer, "[%s] %s\n", formatDuration(elapsed), fmt.Sprintf(format, args...))
	}
}

// Warning logs warnings (always shown).
func (l *Logger) Warning(format string, args ...interface{}) {
	fmt.Fprintf(l.writer, "Warning: %s\n", fmt.Sprintf(format, args...))
}

// Error logs errors (always shown).
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.writer, "Error: %s\n", fmt.Sprintf(format, args...))
}

// StartTiming begins timing a named pipeline stage. The returned func
// records the duration when called.
func (l *Logger) StartTiming(name string) func() {
	start := time.Now()
	return func() {
		l.timings[name] = time.Since(start)
	}
}

// Timing returns the recorded duration for a stage.
func (l *Logger) Timing(name string) time.Duration {
	return l.timings[name]
}

// PrintTimingSummary prints the recorded stage timings (debug mode only).
func (l *Logger) PrintTimingSummary(order ...string) {
	if l.verbosity < VerbosityDebug {
		return
	}
	fmt.Fprintln(l.writer, "\nTiming Summary:")
	for _, name := range order {
		if d, ok := l.timings[name]; ok {
			fmt.Fprintf(l.writer, "  %s: %s\n", name, d.Round(time.Millisecond))
		}
	}
}

// IsDebug returns true if debug mode is enabled.
func (l *Logger) IsDebug() bool {
	return l.verbosity >= VerbosityDebug
}

// IsQuiet returns true if only warnings and errors are shown.
func (l *Logger) IsQuiet() bool {
	return l.verbosity <= VerbosityQuiet
}

// formatDuration formats duration as MM:SS.mmm.
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}
