package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// palette holds the escape sequences used for one line of output. The zero
// palette writes plain text.
type palette struct {
	reset, dim, bold string
	debug, info      string
	warn, err        string
}

var ansiPalette = palette{
	reset: "\033[0m",
	dim:   "\033[2m",
	bold:  "\033[1m",
	debug: "\033[36m",
	info:  "\033[32m",
	warn:  "\033[33m",
	err:   "\033[31m",
}

// TerminalHandler writes one human-readable line per record:
//
//	15:04:05.000 INF shard planned run=dpo_1a2b3c4d shards=100
//
// Colour is used only when the writer is a terminal and NO_COLOR is unset.
type TerminalHandler struct {
	w      io.Writer
	level  slog.Leveler
	colors palette
	prefix string
	attrs  []slog.Attr
	mu     *sync.Mutex
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *TerminalHandler {
	h := &TerminalHandler{w: w, level: slog.LevelInfo, mu: &sync.Mutex{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	if wantsColor(w) {
		h.colors = ansiPalette
	}
	return h
}

func wantsColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	c := h.colors
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(c.dim + ts.Format("15:04:05.000") + c.reset + " ")

	color, label := c.level(r.Level)
	buf.WriteString(color + label + c.reset + " ")
	buf.WriteString(c.bold + r.Message + c.reset)

	for _, a := range h.attrs {
		h.writeAttr(buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup returns a handler that qualifies later keys with name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (c palette) level(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return c.debug, "DBG"
	case level < slog.LevelWarn:
		return c.info, "INF"
	case level < slog.LevelError:
		return c.warn, "WRN"
	default:
		return c.err, "ERR"
	}
}

func (h *TerminalHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, prefix, ga)
		}
		return
	}
	buf.WriteString(" " + h.colors.dim + prefix + a.Key + "=" + h.colors.reset)
	buf.WriteString(quoteValue(a.Value))
}

func quoteValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && (s == "" || strings.ContainsAny(s, " \t\n\"\\=")) {
		return strconv.Quote(s)
	}
	return s
}
