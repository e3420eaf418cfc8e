// Package logging declares the logging sink this module calls into as an
// external collaborator (spec §1), following the same pluggable-callback
// philosophy as gortsplib's OnRequest/OnResponse handler hooks.
package logging

import (
	"fmt"
	"strings"
)

// Logger is a minimal leveled logging sink. Implementations may route to
// any backend; cmd/aafmap-demo wires github.com/charmbracelet/log.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Nop discards everything. It is the default when no Logger is supplied.
type Nop struct{}

func (Nop) Debugf(string, ...interface{}) {}
func (Nop) Infof(string, ...interface{})  {}
func (Nop) Warnf(string, ...interface{})  {}
func (Nop) Errorf(string, ...interface{}) {}

// Prefixed wraps a Logger, prepending a fixed string (e.g. a session id)
// to every message, so a shared sink's output can be grepped down to one
// mapping instance (spec §1.1).
type Prefixed struct {
	Prefix string
	Next   Logger
}

func (p Prefixed) Debugf(format string, args ...interface{}) {
	p.Next.Debugf(p.Prefix+format, args...)
}

func (p Prefixed) Infof(format string, args ...interface{}) {
	p.Next.Infof(p.Prefix+format, args...)
}

func (p Prefixed) Warnf(format string, args ...interface{}) {
	p.Next.Warnf(p.Prefix+format, args...)
}

func (p Prefixed) Errorf(format string, args ...interface{}) {
	p.Next.Errorf(p.Prefix+format, args...)
}

// Recorder is a test Logger that keeps every formatted line, so tests can
// assert on mute/un-mute transition counts (spec §8 invariant 7).
type Recorder struct {
	Lines []string
}

func (r *Recorder) record(level, format string, args ...interface{}) {
	r.Lines = append(r.Lines, level+": "+fmt.Sprintf(format, args...))
}

func (r *Recorder) Debugf(format string, args ...interface{}) { r.record("debug", format, args...) }
func (r *Recorder) Infof(format string, args ...interface{})  { r.record("info", format, args...) }
func (r *Recorder) Warnf(format string, args ...interface{})  { r.record("warn", format, args...) }
func (r *Recorder) Errorf(format string, args ...interface{}) { r.record("error", format, args...) }

// Count returns the number of recorded lines containing substr.
func (r *Recorder) Count(substr string) int {
	n := 0
	for _, l := range r.Lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}
