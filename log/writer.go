package log

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Writer receives formatted events from a Logger and delivers them
// somewhere: a terminal, a file, a buffer.
type Writer interface {
	Write(e *Event) error
	Close()
}

type jsonWriter struct {
	writer    io.Writer
	level     Level
	formatter Formatter
}

// NewJSONWriter writes one JSON object per line to w, for every event
// at or above level. Intended for environments that collect stdout/
// stderr as structured logs (e.g. a container log driver) rather than
// a human watching a terminal.
func NewJSONWriter(w io.Writer, level Level) Writer {
	writer := &jsonWriter{
		writer:    w,
		level:     level,
		formatter: NewJSONFormatter(),
	}

	return NewSyncWriter(writer)
}

func (w *jsonWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	_, err := w.writer.Write(w.formatter.Bytes(e))

	return err
}

func (w *jsonWriter) Close() {}

type consoleWriter struct {
	writer    io.Writer
	level     Level
	formatter Formatter
}

// NewConsoleWriter writes logfmt-style lines to w, for every event at
// or above level. Color is used only if useColor is true and w is a
// terminal (not a pipe or a redirected file).
func NewConsoleWriter(w io.Writer, level Level, useColor bool) Writer {
	writer := &consoleWriter{
		writer: w,
		level:  level,
	}

	color := useColor && isTerminal(w)
	writer.formatter = NewConsoleFormatter(color)

	return NewSyncWriter(writer)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *consoleWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	_, err := w.writer.Write(w.formatter.Bytes(e))

	return err
}

func (w *consoleWriter) Close() {}

// syncWriter serializes concurrent Write calls against a Writer that
// isn't itself safe for concurrent use (bufio.Writer, most io.Writer
// wrapping a single file descriptor).
type syncWriter struct {
	mu     sync.Mutex
	writer Writer
}

func NewSyncWriter(writer Writer) Writer {
	return &syncWriter{writer: writer}
}

func (w *syncWriter) Write(e *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writer.Write(e)
}

func (w *syncWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Close()
}
