// Package diag carries leveled diagnostics out of the preprocessor.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a diagnostic.
type Level int

const (
	Info Level = iota
	Warning
	Critical
	Severe
)

var toString = map[Level]string{
	Info:     "info",
	Warning:  "warning",
	Critical: "critical",
	Severe:   "severe",
}

var toLevel = map[string]Level{
	"info":     Info,
	"warn":     Warning,
	"warning":  Warning,
	"critical": Critical,
	"error":    Critical,
	"severe":   Severe,
}

func (l Level) String() string {
	if s, ok := toString[l]; ok {
		return s
	}
	return "info"
}

// ParseLevel maps a level name to a Level. Names are case-insensitive.
func ParseLevel(name string) (Level, error) {
	if l, ok := toLevel[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return Info, fmt.Errorf("unknown diagnostic level %q", name)
}

// Entry is a single diagnostic.
type Entry struct {
	Level Level
	Err   error
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %v", e.Level, e.Err)
}

// Sink receives diagnostics.
type Sink interface {
	Report(e Entry)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e Entry)

func (f SinkFunc) Report(e Entry) { f(e) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Entry) {})

// Recorder keeps every diagnostic it receives.
type Recorder struct {
	Entries []Entry
}

func (r *Recorder) Report(e Entry) {
	r.Entries = append(r.Entries, e)
}

// AtLeast returns the recorded entries with level >= min.
func (r *Recorder) AtLeast(min Level) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets all recorded entries.
func (r *Recorder) Reset() {
	r.Entries = nil
}

// Logger writes diagnostics through logrus.
type Logger struct {
	log *logrus.Logger
	min Level
}

var toLogrus = map[Level]logrus.Level{
	Info:     logrus.InfoLevel,
	Warning:  logrus.WarnLevel,
	Critical: logrus.ErrorLevel,
	Severe:   logrus.ErrorLevel,
}

// NewLogger returns a Sink that writes entries with level >= min to w.
func NewLogger(w io.Writer, min Level, color bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      color,
		DisableColors:    !color,
	})
	return &Logger{log: l, min: min}
}

func (l *Logger) Report(e Entry) {
	if e.Level < l.min {
		return
	}
	l.log.WithField("severity", e.Level.String()).Log(toLogrus[e.Level], e.Err)
}
