package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// LogHandler is a slog.Handler that forwards records into the event log
// panel. It never blocks: records are dropped when the channel is full, so
// it is safe to log from the UI goroutine and from gateway callbacks.
type LogHandler struct {
	ch    chan<- LogLine
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewLogHandler creates a handler that sends LogLines to ch.
func NewLogHandler(ch chan<- LogLine, level slog.Leveler) *LogHandler {
	return &LogHandler{ch: ch, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record as "message key=value ..." and queues it.
func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.qualifiedKey(a.Key), a.Value)
		return true
	})

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	select {
	case h.ch <- LogLine{Time: t, Level: r.Level, Message: b.String()}:
	default:
	}
	return nil
}

// writeAttr appends " key=value". Component tags are noise in the panel.
func writeAttr(b *strings.Builder, key string, value slog.Value) {
	if key == "component" || key == "client_id" {
		return
	}
	v := value.Resolve().String()
	if v == "" || strings.ContainsAny(v, " \t\"=") {
		v = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(b, " %s=%s", key, v)
}

// WithAttrs returns a new handler with the given attributes, qualified by
// the current group.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, slog.Attr{Key: h.qualifiedKey(a.Key), Value: a.Value})
	}
	return &LogHandler{ch: h.ch, level: h.level, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new handler with the given group name.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &LogHandler{ch: h.ch, level: h.level, attrs: h.attrs, group: newGroup}
}

// qualifiedKey prepends the group prefix to a key.
func (h *LogHandler) qualifiedKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
