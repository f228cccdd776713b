// Package log implements this module's structured logging. It follows
// mongo-tools' common/log.ToolLogger shape (a mutex-guarded writer plus a
// verbosity gate) but emits one JSON object per line rather than plain
// text, matching this module's contract of structured records on stderr.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Verbosity levels, in increasing order of chattiness.
const (
	Always = iota
	Info
	Debug
)

// Logger is a verbosity-gated structured logger. Its zero value is not
// usable; construct one with New.
type Logger struct {
	mu        sync.Mutex
	writer    io.Writer
	verbosity int
}

// record is the shape of one emitted JSON log line.
type record struct {
	Time    string `json:"time"`
	Level   int    `json:"level"`
	Message string `json:"msg"`
	Subject string `json:"subject,omitempty"`
}

// New builds a Logger writing to os.Stderr at the given verbosity.
func New(verbosity int) *Logger {
	return &Logger{writer: os.Stderr, verbosity: verbosity}
}

// SetWriter redirects output; useful in tests.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetVerbosity adjusts the gate at runtime (e.g. from the -v flag).
func (l *Logger) SetVerbosity(v int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbosity = v
}

// Log emits msg if minVerb is at or below the logger's configured
// verbosity.
func (l *Logger) Log(minVerb int, subject, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if minVerb > l.verbosity {
		return
	}

	rec := record{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   minVerb,
		Message: msg,
		Subject: subject,
	}

	enc, err := json.Marshal(rec)
	if err != nil {
		// Marshaling a record built entirely of strings and ints cannot
		// fail; this would only trip if someone breaks that invariant.
		return
	}

	l.writer.Write(append(enc, '\n'))
}

// Error logs a fatal-error record, unconditionally (minVerb Always).
func (l *Logger) Error(subject string, err error) {
	l.Log(Always, subject, err.Error())
}

var global = New(Info)

// SetGlobalVerbosity adjusts the package-level default logger, mirroring
// mongo-tools' common/log package-level SetVerbosity convention.
func SetGlobalVerbosity(v int) { global.SetVerbosity(v) }

// Infof logs via the package-level default logger at Info verbosity.
func Infof(subject, format string, args ...interface{}) {
	global.Log(Info, subject, fmt.Sprintf(format, args...))
}

// Debugf logs via the package-level default logger at Debug verbosity.
func Debugf(subject, format string, args ...interface{}) {
	global.Log(Debug, subject, fmt.Sprintf(format, args...))
}

// Error logs a non-fatal error via the package-level default logger.
func Error(subject string, err error) {
	global.Error(subject, err)
}

// Fatalf logs an Always-level record then calls os.Exit(1). Reserved for
// the CLI entrypoint's top-level error handler.
func Fatalf(subject string, err error) {
	global.Error(subject, err)
	os.Exit(1)
}
