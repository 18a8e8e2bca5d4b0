package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Formatter renders an Event as a line of output. Bytes and String must
// render identically; Bytes exists to avoid an extra allocation for
// writers that want []byte directly.
type Formatter interface {
	Bytes(e *Event) []byte
	String(e *Event) string
}

type jsonFormatter struct{}

// NewJSONFormatter renders events as one JSON object per line, with
// ts/component/caller/message folded in alongside the event's own
// fields.
func NewJSONFormatter() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Bytes(e *Event) []byte {
	line := make(Fields, len(e.Data)+4)
	for k, v := range e.Data {
		line[k] = v
	}

	line["ts"] = e.Time
	line["level"] = e.Level
	line["component"] = e.Component

	if len(e.Caller) != 0 {
		line["caller"] = e.Caller
	}
	if len(e.Message) != 0 {
		line["message"] = e.Message
	}

	data, err := json.Marshal(line)
	if err != nil {
		return []byte(fmt.Sprintf(`{"level":"ERROR","message":%q}`+"\n", "failed to marshal log line: "+err.Error()))
	}

	return append(data, '\n')
}

func (f *jsonFormatter) String(e *Event) string {
	return string(f.Bytes(e))
}

type consoleFormatter struct {
	color bool
}

// NewConsoleFormatter renders events as logfmt-style key=value lines,
// optionally ANSI-colored by level for an interactive terminal.
func NewConsoleFormatter(useColor bool) Formatter {
	return &consoleFormatter{color: useColor}
}

func (f *consoleFormatter) Bytes(e *Event) []byte {
	return []byte(f.String(e))
}

func (f *consoleFormatter) String(e *Event) string {
	datetime := e.Time.UTC().Format(time.RFC3339)
	level := e.Level.String()

	if f.color {
		switch e.Level {
		case Ldebug:
			level = fmt.Sprintf("\033[35m%s\033[0m", level)
		case Linfo:
			level = fmt.Sprintf("\033[34m%s\033[0m", level)
		case Lwarn:
			level = fmt.Sprintf("\033[33m%s\033[0m", level)
		case Lerror:
			level = fmt.Sprintf("\033[31m\033[5m%s\033[0m", level)
		}
	}

	line := fmt.Sprintf("%s %s %s", f.kv("ts", datetime), f.kv("level", level), f.kv("component", f.quote(e.Component)))

	if len(e.Message) != 0 {
		line += " " + f.kv("msg", f.quote(e.Message))
	}

	keys := make([]string, 0, len(e.Data))
	for key := range e.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		line += " " + f.kv(key, f.render(e.Data[key]))
	}

	return line + "\n"
}

func (f *consoleFormatter) render(value interface{}) string {
	switch val := value.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return f.quote(val)
	case error:
		return f.quote(val.Error())
	case fmt.Stringer:
		return f.quote(val.String())
	default:
		if jsonvalue, err := json.Marshal(value); err == nil {
			return string(jsonvalue)
		}
		return f.quote(fmt.Sprintf("%v", value))
	}
}

func (f *consoleFormatter) kv(key, value string) string {
	if !f.color {
		return fmt.Sprintf("%s=%s", key, value)
	}

	if key == "error" {
		value = "\033[31m" + value + "\033[0m"
	}

	return fmt.Sprintf("\033[90m%s=\033[0m%s", key, value)
}

func (f *consoleFormatter) quote(s string) string {
	return strconv.Quote(s)
}
