// Package logging provides the small structured logger the pipeline
// collaborators that log (orchestrator, remote extractor, OCR adapter) use
// instead of ad hoc log.Printf calls. The cache does not log; the
// orchestrator logs its write failures.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger wraps two *log.Logger sinks (Info/Debug to stdout, Warn/Error to
// stderr, matching the usual Unix convention of keeping diagnostics off the
// primary output stream) behind a component prefix plus an optional set of
// persistent key-value fields, e.g. the document currently being processed.
type Logger struct {
	prefix string
	fields []kv
	out    *log.Logger
	err    *log.Logger
}

type kv struct {
	key   string
	value interface{}
}

// NewLogger creates a new logger with a prefix and no persistent fields.
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		out:    log.New(os.Stdout, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
		err:    log.New(os.Stderr, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// WithSource returns a child Logger that prefixes every subsequent call with
// "source=<source>", so a worker processing one document doesn't need to
// repeat that key on every Info/Warn/Error/Debug call for its duration.
func (l *Logger) WithSource(source string) *Logger {
	fields := make([]kv, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, kv{"source", source})
	return &Logger{prefix: l.prefix, fields: fields, out: l.out, err: l.err}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.out, "INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.err, "WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.err, "ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.out, "DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(dest *log.Logger, level, msg string, keysAndValues ...interface{}) {
	kvStr := ""
	for _, f := range l.fields {
		kvStr += fmt.Sprintf(" %s=%v", f.key, f.value)
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			kvStr += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
		}
	}
	dest.Printf("[%s] %s%s", level, msg, kvStr)
}
