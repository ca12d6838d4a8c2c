package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI escapes used by the pretty handler.
const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler renders records for humans: colorized single-line text,
// or indented multiline output when the JSON format is selected.
// Attribute values are resolved before rendering, so [slog.LogValuer]
// payloads print their resolved form, and group attributes flatten to
// dotted keys.
type prettyHandler struct {
	cfg    settings
	mu     *sync.Mutex
	attrs  []slog.Attr // pre-attached, keys already qualified
	prefix string      // dotted group path for subsequent keys
}

func newPrettyHandler(s settings) *prettyHandler {
	return &prettyHandler{cfg: s, mu: &sync.Mutex{}}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	qualified := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		qualified[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], qualified...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if h.cfg.format == FormatJSON {
		h.renderJSON(buf, r)
	} else {
		h.renderText(buf, r)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) renderText(buf *bytes.Buffer, r slog.Record) {
	if !r.Time.IsZero() {
		if stamp := h.cfg.formatTime(r.Time); stamp != "" {
			colored(buf, ansiGray, stamp)
		}
	}

	pad(buf)
	colored(buf, levelColor(r.Level), strings.ToUpper(Level(r.Level).String()))

	if h.cfg.caller {
		if src := r.Source(); src != nil {
			pad(buf)
			colored(buf, ansiGray, fmt.Sprintf("%s:%d", src.File, src.Line))
		}
	}

	pad(buf)
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.textAttr(buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.textAttr(buf, h.prefix, a)

		return true
	})
}

func (h *prettyHandler) textAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}

		for _, ga := range v.Group() {
			h.textAttr(buf, p, ga)
		}

		return
	}

	pad(buf)
	colored(buf, ansiGray, prefix+a.Key)
	buf.WriteByte('=')
	writeValue(buf, v)
}

func (h *prettyHandler) renderJSON(buf *bytes.Buffer, r slog.Record) {
	buf.WriteString("{\n")

	n := 0

	if !r.Time.IsZero() {
		if stamp := h.cfg.formatTime(r.Time); stamp != "" {
			h.jsonAttr(buf, &n, "", slog.String(slog.TimeKey, stamp))
		}
	}

	h.jsonAttr(buf, &n, "", slog.String(slog.LevelKey, strings.ToUpper(Level(r.Level).String())))

	if h.cfg.caller {
		if src := r.Source(); src != nil {
			h.jsonAttr(buf, &n, "", slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.jsonAttr(buf, &n, "", slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		h.jsonAttr(buf, &n, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.jsonAttr(buf, &n, h.prefix, a)

		return true
	})

	buf.WriteString("\n}")
}

func (h *prettyHandler) jsonAttr(buf *bytes.Buffer, n *int, prefix string, a slog.Attr) {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}

		for _, ga := range v.Group() {
			h.jsonAttr(buf, n, p, ga)
		}

		return
	}

	if *n > 0 {
		buf.WriteString(",\n")
	}

	*n++

	buf.WriteString("  ")
	colored(buf, ansiGray, strconv.Quote(prefix+a.Key))
	buf.WriteString(": ")

	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool:
		writeValue(buf, v)

	default:
		colored(buf, ansiCyan, strconv.Quote(v.String()))
	}
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		colored(buf, ansiCyan, v.String())

	case slog.KindInt64:
		colored(buf, ansiYellow, strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		colored(buf, ansiYellow, strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		colored(buf, ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			colored(buf, ansiGreen, "true")
		} else {
			colored(buf, ansiRed, "false")
		}

	case slog.KindDuration:
		colored(buf, ansiMagenta, v.Duration().String())

	case slog.KindTime:
		colored(buf, ansiBlue, v.Time().Format(time.RFC3339))

	default:
		colored(buf, ansiCyan, v.String())
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed

	case level >= slog.LevelWarn:
		return ansiYellow

	case level >= slog.LevelInfo:
		return ansiGreen

	default:
		return ansiBlue
	}
}

func colored(buf *bytes.Buffer, color, text string) {
	buf.WriteString(color)
	buf.WriteString(text)
	buf.WriteString(ansiReset)
}

func pad(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
}
