// Package glog is guardrail's ambient logging surface: a small structured
// Logger interface every guard accepts optionally, plus a default
// implementation backed by github.com/sirupsen/logrus for callers who
// want guard activity (state transitions, saturation warnings, ignored
// errors) surfaced without wiring their own adapter.
//
// Guards default to NoOp so importing guardrail produces no log output
// until a caller opts in.
package glog

import "github.com/sirupsen/logrus"

// Fields is a structured logging payload attached to one log line.
type Fields map[string]interface{}

// Logger is the structured logging surface guards accept.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// NoOp is the zero-value Logger: every call is a no-op.
type NoOp struct{}

func (NoOp) Debug(string, Fields) {}
func (NoOp) Info(string, Fields) {}
func (NoOp) Warn(string, Fields) {}
func (NoOp) Error(string, Fields) {}


// logrusLogger adapts a *logrus.Entry to Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus returns a Logger that writes through logrus, tagging every
// line with a "component" field set to component.
func NewLogrus(component string) Logger {
	return &logrusLogger{entry: logrus.WithField("component", component)}
}

// NewLogrusWithLogger adapts a caller-supplied *logrus.Logger instead of
// the package-level default, for applications that already configure
// their own logrus output/formatter/level.
func NewLogrusWithLogger(l *logrus.Logger, component string) Logger {
	return &logrusLogger{entry: l.WithField("component", component)}
}

func (l *logrusLogger) Debug(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}
