package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one record kept in History.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Module  string
	Message string
	Attrs   string // pre-rendered key=value pairs
}

// String renders the entry for a single status line.
func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Time.Format("15:04:05"))
	sb.WriteByte(' ')
	sb.WriteString(e.Level.String())
	if e.Module != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Module)
		sb.WriteByte(']')
	}
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	if e.Attrs != "" {
		sb.WriteByte(' ')
		sb.WriteString(e.Attrs)
	}
	return sb.String()
}

// History is a fixed-size ring of recent entries. The terminal status line
// reads from it.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
}

// NewHistory allocates a ring holding size entries.
func NewHistory(size int) *History {
	return &History{entries: make([]Entry, size)}
}

// Add appends e, overwriting the oldest entry once full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	h.entries[h.head] = e
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
	h.mu.Unlock()
}

// All returns entries oldest first.
func (h *History) All() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, 0, h.count)
	start := (h.head - h.count + len(h.entries)) % len(h.entries)
	for i := range h.count {
		out = append(out, h.entries[(start+i)%len(h.entries)])
	}
	return out
}

// Last returns the newest entry at or above min.
func (h *History) Last(min slog.Level) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := 1; i <= h.count; i++ {
		e := h.entries[(h.head-i+len(h.entries))%len(h.entries)]
		if e.Level >= min {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// HistoryHandler is a slog.Handler that records into a History.
type HistoryHandler struct {
	history *History
	level   slog.Leveler
	module  string
	attrs   []slog.Attr
	groups  []string
}

// NewHistoryHandler returns a handler filtering at level.
func NewHistoryHandler(h *History, level slog.Leveler) *HistoryHandler {
	return &HistoryHandler{history: h, level: level}
}

// Enabled implements slog.Handler.
func (h *HistoryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *HistoryHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	for _, a := range h.attrs {
		writeAttr(&sb, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.groups, a)
		return true
	})

	h.history.Add(Entry{
		Time:    r.Time,
		Level:   r.Level,
		Module:  h.module,
		Message: r.Message,
		Attrs:   strings.TrimSpace(sb.String()),
	})
	return nil
}

func writeAttr(sb *strings.Builder, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(sb, append(groups, a.Key), ga)
		}
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	fmt.Fprintf(sb, " %s=%v", key, a.Value.Resolve().Any())
}

// WithAttrs implements slog.Handler. The "module" attribute is lifted into
// Entry.Module instead of the rendered attributes.
func (h *HistoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Key == "module" && len(h.groups) == 0 {
			next.module = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup implements slog.Handler.
func (h *HistoryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}
