package jxf

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled reports false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with evaluation on any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by jxf.
// By default jxf produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior. Logging never influences decoded documents or evaluated
// geometry. Extension handlers implementing SetLogger(*slog.Logger) that
// are registered in a live Registry receive the new logger too.
//
// Log levels used by jxf:
//   - [slog.LevelDebug]: parse, validation and evaluation diagnostics
//   - [slog.LevelWarn]: entities skipped during batch evaluation,
//     extensions passed through without a handler
//
// Example:
//
//	jxf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	for _, r := range loggerReceivers() {
		r.propagateLogger(l)
	}
}

// Logger returns the current logger used by jxf.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by extension handlers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands the logger to an extension handler if it
// implements loggerSetter. Called from both SetLogger and Registry.Register
// so handlers always hold the current logger.
func propagateLogger(h ExtensionHandler, l *slog.Logger) {
	if ls, ok := h.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// Registries holding a loggerSetter handler. Weak, so a dropped Codec or
// Registry is still collected.
var (
	receiversMu sync.Mutex
	receivers   []weak.Pointer[Registry]
)

func trackLoggerReceiver(r *Registry) {
	receiversMu.Lock()
	defer receiversMu.Unlock()
	receivers = append(receivers, weak.Make(r))
}

// loggerReceivers returns the live tracked registries and prunes the rest.
func loggerReceivers() []*Registry {
	receiversMu.Lock()
	defer receiversMu.Unlock()

	live := make([]*Registry, 0, len(receivers))
	kept := receivers[:0]
	for _, wp := range receivers {
		if r := wp.Value(); r != nil {
			live = append(live, r)
			kept = append(kept, wp)
		}
	}
	clear(receivers[len(kept):])
	receivers = kept
	return live
}
