package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxValueLen is the longest string attribute value written as is.
// Source lines logged at debug level can be arbitrarily long.
const DefaultMaxValueLen = 120

// pathKeys contains attribute keys whose values are file system paths.
var pathKeys = map[string]bool{
	"path":     true,
	"document": true,
	"file":     true,
	"dir":      true,
	"output":   true,
	"config":   true,
	"plot":     true,
}

// TidyHandler wraps an slog.Handler and keeps log lines short and
// shareable: long string values are truncated and paths under the user's
// home directory are written relative to "~".
type TidyHandler struct {
	// handler is the underlying slog handler that receives tidied records.
	handler slog.Handler

	// maxValueLen is the truncation limit for string values.
	maxValueLen int

	// home is the home directory prefix replaced by "~". Empty disables it.
	home string
}

// HandlerOption configures a TidyHandler.
type HandlerOption func(*TidyHandler)

// WithMaxValueLen sets the truncation limit. Values of zero or less
// disable truncation.
func WithMaxValueLen(n int) HandlerOption {
	return func(h *TidyHandler) {
		h.maxValueLen = n
	}
}

// WithHomeDir sets the directory that is shortened to "~".
func WithHomeDir(dir string) HandlerOption {
	return func(h *TidyHandler) {
		h.home = filepath.Clean(dir)
	}
}

// NewTidyHandler creates a TidyHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewTidyHandler(handler slog.Handler, opts ...HandlerOption) *TidyHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &TidyHandler{
		handler:     handler,
		maxValueLen: DefaultMaxValueLen,
	}
	if home, err := os.UserHomeDir(); err == nil {
		h.home = filepath.Clean(home)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *TidyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle tidies the record's attributes and passes it to the underlying handler.
func (h *TidyHandler) Handle(ctx context.Context, r slog.Record) error {
	tidied := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		tidied.AddAttrs(h.tidyAttr(a))
		return true
	})
	return h.handler.Handle(ctx, tidied)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *TidyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	tidied := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		tidied[i] = h.tidyAttr(a)
	}
	return h.clone(h.handler.WithAttrs(tidied))
}

// WithGroup returns a new handler with the given group name.
func (h *TidyHandler) WithGroup(name string) slog.Handler {
	return h.clone(h.handler.WithGroup(name))
}

func (h *TidyHandler) clone(handler slog.Handler) *TidyHandler {
	return &TidyHandler{handler: handler, maxValueLen: h.maxValueLen, home: h.home}
}

// tidyAttr tidies a single attribute, recursively handling groups.
func (h *TidyHandler) tidyAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		tidied := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			tidied[i] = h.tidyAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(tidied...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	value := a.Value.String()
	if pathKeys[strings.ToLower(a.Key)] {
		value = h.shortenPath(value)
	}
	return slog.String(a.Key, h.truncate(value))
}

// shortenPath replaces the home directory prefix of path with "~".
func (h *TidyHandler) shortenPath(path string) string {
	if h.home == "" || h.home == string(filepath.Separator) {
		return path
	}
	if path == h.home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, h.home+string(filepath.Separator)); ok {
		return filepath.Join("~", rest)
	}
	return path
}

// truncate cuts value to maxValueLen bytes on a rune boundary.
func (h *TidyHandler) truncate(value string) string {
	if h.maxValueLen <= 0 || len(value) <= h.maxValueLen {
		return value
	}
	cut := h.maxValueLen
	for cut > 0 && !isRuneStart(value[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes)", value[:cut], len(value))
}

// isRuneStart reports whether b can begin a UTF-8 encoded rune.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// NewLogger creates a text slog.Logger writing tidied records to w.
// verbose selects Debug level, otherwise Warn.
func NewLogger(w io.Writer, verbose bool, opts ...HandlerOption) *slog.Logger {
	return slog.New(NewTidyHandler(slog.NewTextHandler(w, handlerOptions(verbose)), opts...))
}

// NewJSONLogger creates a JSON slog.Logger writing tidied records to w.
func NewJSONLogger(w io.Writer, verbose bool, opts ...HandlerOption) *slog.Logger {
	return slog.New(NewTidyHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), opts...))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
