package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// prettyHandler formats log records as coloured terminal output:
//
//	15:04:05.000 INF search served search_type=semantic results=5
type prettyHandler struct {
	writer io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	mu     *sync.Mutex
}

func newPrettyHandler(w io.Writer, level slog.Leveler) *prettyHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &prettyHandler{
		writer: w,
		level:  level,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as a single coloured line.
func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(256)

	buf.WriteString(ansiDim)
	buf.WriteString(r.Time.Format("15:04:05.000"))
	buf.WriteString(ansiReset)
	buf.WriteByte(' ')

	buf.WriteString(levelTag(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, attr := range h.attrs {
		writeAttr(&buf, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&buf, attr)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler whose records carry the given attributes.
func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &prettyHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  combined,
		mu:     h.mu,
	}
}

// WithGroup is a no-op for the pretty handler; attrs are printed flat.
func (h *prettyHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed + "ERR" + ansiReset
	case level >= slog.LevelWarn:
		return ansiYellow + "WRN" + ansiReset
	case level >= slog.LevelInfo:
		return ansiGreen + "INF" + ansiReset
	default:
		return ansiCyan + "DBG" + ansiReset
	}
}

func writeAttr(buf *bytes.Buffer, attr slog.Attr) {
	buf.WriteByte(' ')
	buf.WriteString(ansiDim)
	buf.WriteString(attr.Key)
	buf.WriteByte('=')
	buf.WriteString(ansiReset)
	fmt.Fprintf(buf, "%v", attr.Value.Any())
}
