package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

func paint(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	case l >= slog.LevelInfo:
		return colorGreen
	case l >= slog.LevelDebug:
		return colorBlue
	default:
		return colorMagenta
	}
}

// valueColor returns the color and text of a resolved attribute value.
func valueColor(v slog.Value) (string, string) {
	switch v.Kind() {
	case slog.KindInt64:
		return colorYellow, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return colorYellow, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		if v.Bool() {
			return colorGreen, "true"
		}

		return colorRed, "false"
	case slog.KindDuration:
		return colorMagenta, v.Duration().String()
	case slog.KindTime:
		return colorBlue, v.Time().String()
	default:
		return colorCyan, v.String()
	}
}

// prettyBase holds what both pretty handlers share: options, the output
// guarded by a mutex, and the attributes and groups added to the handler.
type prettyBase struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr
	group      string
}

func (b prettyBase) enabled(level slog.Level) bool {
	floor := slog.LevelInfo
	if b.opts.Level != nil {
		floor = b.opts.Level.Level()
	}

	return level >= floor
}

func (b prettyBase) withAttrs(attrs []slog.Attr) prettyBase {
	b.attrs = slices.Clip(b.attrs)

	for _, a := range attrs {
		b.attrs = flatten(b.attrs, b.group, a)
	}

	return b
}

func (b prettyBase) withGroup(name string) prettyBase {
	if b.group != "" {
		name = b.group + "." + name
	}

	b.group = name

	return b
}

// record returns the header fields and attributes of r as flat key/value
// pairs in output order.
func (b prettyBase) record(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, 4+len(b.attrs)+r.NumAttrs())

	if !r.Time.IsZero() && b.formatTime != nil {
		if s := b.formatTime(r.Time); s != "" {
			out = append(out, slog.String(slog.TimeKey, s))
		}
	}

	out = append(out, slog.Any(slog.LevelKey, r.Level))

	if b.opts.AddSource {
		if src := r.Source(); src != nil {
			out = append(out, slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	out = append(out, slog.String(slog.MessageKey, r.Message))
	out = append(out, b.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		out = flatten(out, b.group, a)

		return true
	})

	return out
}

// flatten appends a, expanding groups into dotted keys.
func flatten(out []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return out
	}

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if a.Value.Kind() != slog.KindGroup {
		return append(out, slog.Attr{Key: key, Value: a.Value})
	}

	for _, g := range a.Value.Group() {
		out = flatten(out, key, g)
	}

	return out
}

func (b prettyBase) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes colorized key=value lines.
type prettyTextHandler struct{ prettyBase }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyTextHandler {
	return &prettyTextHandler{prettyBase{opts: *opts, formatTime: ft, mu: &sync.Mutex{}, w: w}}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	for i, a := range h.record(r) {
		if i > 0 {
			buf.WriteByte(' ')
		}

		paint(&buf, colorGray, a.Key)
		buf.WriteByte('=')

		if l, ok := a.Value.Any().(slog.Level); ok && a.Key == slog.LevelKey {
			paint(&buf, levelColor(l), strings.ToUpper(Level(l).String()))

			continue
		}

		color, text := valueColor(a.Value)
		paint(&buf, color, text)
	}

	return h.write(&buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

// prettyJSONHandler writes colorized, indented, JSON-like objects.
type prettyJSONHandler struct{ prettyBase }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyJSONHandler {
	return &prettyJSONHandler{prettyBase{opts: *opts, formatTime: ft, mu: &sync.Mutex{}, w: w}}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString("{\n")

	for i, a := range h.record(r) {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		paint(&buf, colorGray, a.Key)
		buf.WriteString(": ")

		if l, ok := a.Value.Any().(slog.Level); ok && a.Key == slog.LevelKey {
			paint(&buf, levelColor(l), strings.ToUpper(Level(l).String()))

			continue
		}

		color, text := valueColor(a.Value)
		paint(&buf, color, text)
	}

	buf.WriteString("\n}")

	return h.write(&buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}
