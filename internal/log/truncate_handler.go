package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxValueLen is the attribute value length at which truncation
// kicks in. Long enough for URLs, headers, and failure reasons; far too
// short for a page body to slip through whole.
const DefaultMaxValueLen = 512

// TruncateHandler wraps an slog.Handler and shortens oversized string
// attribute values before they reach it. A handler wrapper integrates with
// any underlying handler and with every library that accepts *slog.Logger.
type TruncateHandler struct {
	// handler is the underlying slog handler receiving shortened records.
	handler slog.Handler

	// maxLen is the maximum string value length kept intact.
	maxLen int
}

// NewTruncateHandler wraps handler with value truncation at maxLen bytes.
// A maxLen of zero or less uses DefaultMaxValueLen. If handler is nil,
// slog.Default().Handler() is wrapped.
func NewTruncateHandler(handler slog.Handler, maxLen int) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}
	return &TruncateHandler{handler: handler, maxLen: maxLen}
}

// Enabled delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it on.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	shortened := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		shortened.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, shortened)
}

// WithAttrs returns a handler with the given attributes added, shortened.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	shortened := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		shortened[i] = h.truncateAttr(a)
	}
	return &TruncateHandler{handler: h.handler.WithAttrs(shortened), maxLen: h.maxLen}
}

// WithGroup returns a handler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr shortens a single attribute, recursing into groups.
func (h *TruncateHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		shortened := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			shortened[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(shortened...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	val := a.Value.String()
	if len(val) <= h.maxLen {
		return a
	}

	cut := h.maxLen
	// Do not cut in the middle of a UTF-8 sequence.
	for cut > 0 && !utf8.RuneStart(val[cut]) {
		cut--
	}
	return slog.String(a.Key, fmt.Sprintf("%s... (%d bytes truncated)", val[:cut], len(val)-cut))
}

// NewLogger creates a text-format logger writing to w. Verbose mode logs
// at debug level, otherwise informational and up. String attribute values
// are truncated at DefaultMaxValueLen.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncateHandler(textHandler, DefaultMaxValueLen))
}

// NewJSONLogger is NewLogger with JSON output, for log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncateHandler(jsonHandler, DefaultMaxValueLen))
}
