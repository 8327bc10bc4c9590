package dlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/context"
)

type color int

const (
	timeFormat = "[2006-01-02 15:04:05.000]"

	reset = "\033[0m"

	cyan         color = 36
	lightGray    color = 37
	lightRed     color = 91
	green        color = 92
	lightYellow  color = 93
	lightMagenta color = 95
	white        color = 97
)

func colorize(colorCode color, v string) string {
	return fmt.Sprintf("\033[%dm%s%s", int(colorCode), v, reset)
}

// PrettyHandler renders records as a colorized single-header line followed by
// indented JSON attributes. Attribute serialization is delegated to an inner
// JSON handler writing into a shared buffer.
type PrettyHandler struct {
	h slog.Handler
	b *bytes.Buffer
	m *sync.Mutex
	w io.Writer
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	buf := &bytes.Buffer{}
	return &PrettyHandler{
		b: buf,
		h: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: suppressDefaults(opts.ReplaceAttr),
		}),
		m: &sync.Mutex{},
		w: w,
	}
}

func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{h: h.h.WithAttrs(attrs), b: h.b, m: h.m, w: h.w}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{h: h.h.WithGroup(name), b: h.b, m: h.m, w: h.w}
}

func (h *PrettyHandler) computeAttrs(ctx context.Context, r slog.Record) (map[string]any, error) {
	h.m.Lock()
	defer func() {
		h.b.Reset()
		h.m.Unlock()
	}()
	if err := h.h.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("inner handler: %w", err)
	}

	var attrs map[string]any
	if err := json.Unmarshal(h.b.Bytes(), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal inner handler result: %w", err)
	}
	return attrs, nil
}

func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	var level string
	switch {
	case r.Level <= slog.LevelDebug:
		level = colorize(lightGray, r.Level.String()+":")
	case r.Level <= slog.LevelInfo:
		level = colorize(cyan, r.Level.String()+":")
	case r.Level < slog.LevelError:
		level = colorize(lightYellow, r.Level.String()+":")
	case r.Level <= slog.LevelError+1:
		level = colorize(lightRed, r.Level.String()+":")
	default:
		level = colorize(lightMagenta, r.Level.String()+":")
	}

	timestamp := colorize(lightGray, r.Time.Format(timeFormat))
	msg := colorize(white, r.Message)

	attrs, err := h.computeAttrs(ctx, r)
	if err != nil {
		return err
	}

	var file string
	if source, ok := attrs["source"].(map[string]any); ok {
		if f, ok2 := source["file"].(string); ok2 {
			if line, ok3 := source["line"].(float64); ok3 {
				file = f + ":" + strconv.Itoa(int(line))
			} else {
				file = f
			}
		}
		delete(attrs, "source")
	}

	out := strings.Builder{}
	out.WriteString(timestamp)
	out.WriteString(" ")
	out.WriteString(level)
	out.WriteString(" ")
	if len(file) > 0 {
		out.WriteString(file)
		out.WriteString(" ")
	}
	out.WriteString(msg)

	if len(attrs) > 0 {
		jsonBytes, err := json.MarshalIndent(attrs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal attrs: %w", err)
		}
		out.WriteString(" ")
		out.WriteString(colorize(green, string(jsonBytes)))
	}
	out.WriteString("\n")

	_, err = io.WriteString(h.w, out.String())
	return err
}

func suppressDefaults(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey ||
			a.Key == slog.LevelKey ||
			a.Key == slog.MessageKey {
			return slog.Attr{}
		}
		if next == nil {
			return a
		}
		return next(groups, a)
	}
}
