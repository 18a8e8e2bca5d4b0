// Package log implements Timeship's structured logging: four severity
// levels, a component tag on every line, and a small set of key/value
// fields attached per log call instead of free-form message formatting.
package log

import (
	"encoding/json"
	"fmt"
	"maps"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Level is a log severity.
type Level uint

const (
	Lsilent Level = 0
	Lerror  Level = 1
	Lwarn   Level = 2
	Linfo   Level = 3
	Ldebug  Level = 4
)

// String returns the name of the log level.
func (level Level) String() string {
	names := []string{
		"SILENT",
		"ERROR",
		"WARN",
		"INFO",
		"DEBUG",
	}

	if level > Ldebug {
		return "UNKNOWN"
	}

	return names[level]
}

func (level Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(level.String())
}

// Fields is a set of key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger writes structured log lines tagged with a component name.
//
// A line is written to the configured output once its severity is at
// or above the output's own level; otherwise it is discarded. Every
// method other than Log/Debug/Info/Warn/Error/Write/Close returns a new
// Logger rather than mutating the receiver, so a base logger can be
// shared and specialized per call site or per request.
type Logger interface {
	// WithOutput returns a new Logger writing to w instead of the
	// receiver's output.
	WithOutput(w Writer) Logger

	// WithComponent returns a new Logger tagged with component instead
	// of the receiver's.
	WithComponent(component string) Logger

	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger

	WithError(err error) Logger

	// Log writes the pending event at its current level (Debug by
	// default if none of Debug/Info/Warn/Error was called first).
	Log(format string, args ...interface{})

	// Debug returns a Logger that will write at debug level.
	Debug() Logger

	// Info returns a Logger that will write at info level.
	Info() Logger

	// Warn returns a Logger that will write at warn level.
	Warn() Logger

	// Error returns a Logger that will write at error level.
	Error() Logger

	// Write implements io.Writer, logging p at debug level. This lets a
	// Logger stand in for a *log.Logger sink, e.g. as http.Server.ErrorLog.
	Write(p []byte) (int, error)

	Close()
}

// logger is the base implementation of Logger, holding the output and
// component a chain of With* calls specializes from.
type logger struct {
	output     Writer
	component  string
	modulePath string
}

// New returns a Logger tagged with component. Until WithOutput is
// called, log lines are discarded.
func New(component string) Logger {
	l := &logger{
		component: component,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		l.modulePath = info.Path
	}

	return l
}

func (l *logger) Close() {
	if l.output != nil {
		l.output.Close()
	}
}

func (l *logger) clone() *logger {
	return &logger{
		output:     l.output,
		component:  l.component,
		modulePath: l.modulePath,
	}
}

func (l *logger) WithOutput(w Writer) Logger {
	clone := l.clone()
	clone.output = w

	return clone
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return newEvent(l).WithField(key, value)
}

func (l *logger) WithFields(f Fields) Logger {
	return newEvent(l).WithFields(f)
}

func (l *logger) WithError(err error) Logger {
	return newEvent(l).WithError(err)
}

func (l *logger) WithComponent(component string) Logger {
	clone := l.clone()
	clone.component = component

	return clone
}

func (l *logger) Log(format string, args ...interface{}) {
	newEvent(l).Log(format, args...)
}

func (l *logger) Debug() Logger {
	return newEvent(l).Debug()
}

func (l *logger) Info() Logger {
	return newEvent(l).Info()
}

func (l *logger) Warn() Logger {
	return newEvent(l).Warn()
}

func (l *logger) Error() Logger {
	return newEvent(l).Error()
}

func (l *logger) Write(p []byte) (int, error) {
	return newEvent(l).Write(p)
}

// Event is one in-flight log line: a level, a component, a message, and
// a set of fields, accumulated through a chain of With* calls and
// emitted by Log.
type Event struct {
	logger *logger

	Time      time.Time
	Level     Level
	Component string
	Caller    string
	Message   string

	Data Fields
}

func newEvent(l *logger) Logger {
	return &Event{
		logger:    l,
		Component: l.component,
		Data:      Fields{},
	}
}

func (e *Event) Close() {
	e.logger.Close()
}

func (e *Event) WithOutput(w Writer) Logger {
	return e.logger.WithOutput(w)
}

func (e *Event) WithComponent(component string) Logger {
	clone := e.clone()
	clone.Component = component

	return clone
}

// Log stamps the event with the caller's file:line and current time
// and hands it to the logger's output. A no-op if no output is set.
func (e *Event) Log(format string, args ...interface{}) {
	_, file, line, _ := runtime.Caller(1)
	file = strings.TrimPrefix(file, e.logger.modulePath)

	n := e.clone()

	n.logger = nil
	n.Time = time.Now()
	n.Caller = fmt.Sprintf("%s:%d", file, line)

	if n.Level == Lsilent {
		n.Level = Ldebug
	}

	if len(format) != 0 {
		if len(args) == 0 {
			n.Message = format
		} else {
			n.Message = fmt.Sprintf(format, args...)
		}
	}

	if e.logger.output != nil {
		e.logger.output.Write(n)
	}
}

func (e *Event) clone() *Event {
	return &Event{
		Time:      e.Time,
		Caller:    e.Caller,
		logger:    e.logger,
		Level:     e.Level,
		Component: e.Component,
		Message:   e.Message,
		Data:      maps.Clone(e.Data),
	}
}

func (e *Event) WithField(key string, value interface{}) Logger {
	return e.WithFields(Fields{key: value})
}

// maxFields bounds the field set per event; a handler that loops
// user-controlled data into WithField calls can't grow an event
// unboundedly.
const maxFields = 64

func (e *Event) WithFields(f Fields) Logger {
	if maxFields-len(e.Data)-len(f) < 0 {
		return e
	}

	data := make(Fields, len(e.Data)+len(f))
	maps.Copy(data, e.Data)
	maps.Copy(data, f)

	return &Event{
		logger:    e.logger,
		Component: e.Component,
		Level:     e.Level,
		Data:      data,
	}
}

func (e *Event) WithError(err error) Logger {
	if err == nil {
		return e
	}

	return e.WithFields(Fields{"error": err})
}

func (e *Event) Debug() Logger {
	clone := e.clone()
	clone.Level = Ldebug

	return clone
}

func (e *Event) Info() Logger {
	clone := e.clone()
	clone.Level = Linfo

	return clone
}

func (e *Event) Warn() Logger {
	clone := e.clone()
	clone.Level = Lwarn

	return clone
}

func (e *Event) Error() Logger {
	clone := e.clone()
	clone.Level = Lerror

	return clone
}

func (e *Event) Write(p []byte) (int, error) {
	e.Log("%s", strings.TrimSpace(string(p)))

	return len(p), nil
}
