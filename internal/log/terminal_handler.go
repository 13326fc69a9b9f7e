package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI SGR sequences used by the pretty handler.
const (
	sgrReset = "\033[0m"
	sgrDim   = "\033[2m"
	sgrBold  = "\033[1m"
)

// levelTag maps a slog level to its three-letter tag and colour.
func levelTag(level slog.Level) (tag, color string) {
	switch {
	case level < slog.LevelInfo:
		return "DBG", "\033[36m" // cyan
	case level < slog.LevelWarn:
		return "INF", "\033[32m" // green
	case level < slog.LevelError:
		return "WRN", "\033[33m" // yellow
	default:
		return "ERR", "\033[31m" // red
	}
}

// terminalHandler renders records as single coloured lines for interactive
// use, e.g.
//
//	15:04:05.000 INF queue drained indexed=12
//
// The mutex is shared across WithAttrs/WithGroup derivatives so lines from
// sibling handlers never interleave.
type terminalHandler struct {
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *terminalHandler {
	level := slog.Leveler(slog.LevelInfo)
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &terminalHandler{out: w, level: level, mu: &sync.Mutex{}}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	tag, color := levelTag(r.Level)

	var line bytes.Buffer
	line.Grow(256)
	fmt.Fprintf(&line, "%s%s%s %s%s%s %s%s%s",
		sgrDim, ts.Format("15:04:05.000"), sgrReset,
		color, tag, sgrReset,
		sgrBold, r.Message, sgrReset,
	)

	for _, a := range h.attrs {
		h.writeAttr(&line, a, h.groups)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&line, a, h.groups)
		return true
	})
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(line.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// writeAttr appends one " key=value" pair, flattening groups into dotted
// key prefixes the way the JSON handler nests them.
func (h *terminalHandler) writeAttr(line *bytes.Buffer, a slog.Attr, groups []string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		prefix := groups
		if a.Key != "" {
			prefix = append(append([]string(nil), groups...), a.Key)
		}
		for _, member := range a.Value.Group() {
			h.writeAttr(line, member, prefix)
		}
		return
	}

	line.WriteByte(' ')
	line.WriteString(sgrDim)
	for _, g := range groups {
		line.WriteString(g)
		line.WriteByte('.')
	}
	line.WriteString(a.Key)
	line.WriteByte('=')
	line.WriteString(sgrReset)
	line.WriteString(attrValue(a.Value))
}

// attrValue renders a value, quoting strings that would be ambiguous
// unquoted.
func attrValue(v slog.Value) string {
	if v.Kind() == slog.KindString {
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"\\") {
			return strconv.Quote(s)
		}
		return s
	}
	return v.String()
}
