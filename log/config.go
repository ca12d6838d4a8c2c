package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Level is the severity of a log message.
type Level slog.Level

// Severities, lowest to highest. Trace sits one slog band below Debug
// and carries high-volume diagnostics.
const (
	LevelTrace = Level(slog.LevelDebug) - 4
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String returns the lower-case name of the level. Unnamed levels use
// the slog spelling, e.g. "INFO+2".
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"

	case LevelDebug:
		return "debug"

	case LevelInfo:
		return "info"

	case LevelWarn:
		return "warn"

	case LevelError:
		return "error"

	default:
		return slog.Level(l).String()
	}
}

// Format selects the output encoding.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// String returns the lower-case name of the format.
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}

	return "text"
}

// FormatTime renders a record timestamp. Returning "" omits the time
// field entirely.
type FormatTime func(time.Time) string

// Defaults applied by [Make] before options run.
const (
	DefaultLevel      = LevelInfo
	DefaultFormat     = FormatText
	DefaultTimeLayout = time.RFC3339
)

// settings is the configuration captured by [Make]. It is never
// mutated afterward, which is what makes Logger values safe to copy
// and share.
type settings struct {
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option adjusts logger settings at construction.
type Option func(settings) settings

func newSettings(w io.Writer, opts ...Option) settings {
	if w == nil {
		w = io.Discard
	}

	s := settings{
		output:     w,
		formatTime: layoutFunc(DefaultTimeLayout),
		level:      DefaultLevel,
		format:     DefaultFormat,
	}

	for _, opt := range opts {
		s = opt(s)
	}

	return s
}

// WithOutput redirects log records to w. A nil writer discards them.
func WithOutput(w io.Writer) Option {
	return func(s settings) settings {
		if w == nil {
			w = io.Discard
		}

		s.output = w

		return s
	}
}

// WithLevel sets the minimum severity; records below it are dropped.
func WithLevel(level Level) Option {
	return func(s settings) settings {
		s.level = level

		return s
	}
}

// WithFormat selects text or JSON encoding.
func WithFormat(format Format) Option {
	return func(s settings) settings {
		s.format = format

		return s
	}
}

// WithTimeLayout sets the timestamp layout. Named layouts from the
// [time] package are recognized case-insensitively ("RFC3339Nano",
// "Kitchen", ...); anything else is passed verbatim to
// [time.Time.Format]. The layout "none" (or an empty string)
// suppresses timestamps.
func WithTimeLayout(layout string) Option {
	return func(s settings) settings {
		s.formatTime = layoutFunc(layout)

		return s
	}
}

// WithCaller includes the file:line of the logging call site.
func WithCaller(enable bool) Option {
	return func(s settings) settings {
		s.caller = enable

		return s
	}
}

// WithPretty switches to the colorized handlers: single-line ANSI text,
// or indented multiline output for the JSON format.
func WithPretty(enable bool) Option {
	return func(s settings) settings {
		s.pretty = enable

		return s
	}
}

// handler builds the slog handler the settings describe.
func (s settings) handler() slog.Handler {
	if s.pretty {
		return newPrettyHandler(s)
	}

	opts := &slog.HandlerOptions{
		AddSource: s.caller,
		Level:     slog.Level(s.level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if t, ok := a.Value.Any().(time.Time); ok {
					stamp := s.formatTime(t)
					if stamp == "" {
						return slog.Attr{}
					}

					a.Value = slog.StringValue(stamp)
				}

			case slog.LevelKey:
				// Spell trace as TRACE rather than DEBUG-4.
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToUpper(Level(level).String()))
				}
			}

			return a
		},
	}

	if s.format == FormatJSON {
		return slog.NewJSONHandler(s.output, opts)
	}

	return slog.NewTextHandler(s.output, opts)
}

// timeLayouts maps named layouts, lower-cased with punctuation
// stripped, to their [time] package constants.
var timeLayouts = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"rfc822":      time.RFC822,
	"rfc850":      time.RFC850,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"kitchen":     time.Kitchen,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"stampnano":   time.StampNano,
	"none":        "",
}

func layoutFunc(layout string) FormatTime {
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if std, ok := timeLayouts[key]; ok {
		layout = std
	}

	if key == "" || layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
