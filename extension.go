package jxf

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// ExtensionHandler implements a named document extension.
//
// Apply receives the document and the extension's payload from
// Document.Extensions (nil when absent) and returns the document with the
// extension applied. It must not modify doc; use Document.Clone and replace
// what changes. Handlers that also implement SetLogger(*slog.Logger) are
// handed the package logger when registered and again on every SetLogger.
type ExtensionHandler interface {
	CanHandle(name string) bool
	Apply(doc *Document, payload RawValue) (*Document, error)
}

// ExtensionError reports a handler failure.
type ExtensionError struct {
	Name string
	Err  error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("jxf: extension %q: %v", e.Name, e.Err)
}

// Unwrap returns the handler's error.
func (e *ExtensionError) Unwrap() error { return e.Err }

// Registry maps extension names to handlers. The zero value is not usable;
// create one with NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ExtensionHandler
	tracked  bool // registered with SetLogger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]ExtensionHandler)}
}

// Register binds handler to name, replacing any previous binding.
// It fails if the handler reports it cannot handle name.
func (r *Registry) Register(name string, h ExtensionHandler) error {
	if h == nil || !h.CanHandle(name) {
		return fmt.Errorf("jxf: handler %T cannot handle extension %q", h, name)
	}

	_, wantsLogger := h.(loggerSetter)
	r.mu.Lock()
	r.handlers[name] = h
	track := wantsLogger && !r.tracked
	r.tracked = r.tracked || wantsLogger
	r.mu.Unlock()

	if track {
		trackLoggerReceiver(r)
	}
	propagateLogger(h, Logger())
	return nil
}

func (r *Registry) propagateLogger(l *slog.Logger) {
	r.mu.RLock()
	handlers := slices.Collect(maps.Values(r.handlers))
	r.mu.RUnlock()

	for _, h := range handlers {
		propagateLogger(h, l)
	}
}

// Lookup returns the handler bound to name.
func (r *Registry) Lookup(name string) (ExtensionHandler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Supports reports whether a handler is bound to name. A nil registry
// supports nothing.
func (r *Registry) Supports(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered extension names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply runs the handler of every extension in doc.ExtensionsUsed, in
// declaration order. Used extensions without a handler pass through
// untouched. Apply returns doc itself when no handler ran.
func (r *Registry) Apply(doc *Document) (*Document, error) {
	out := doc
	for _, name := range doc.ExtensionsUsed {
		h, ok := r.Lookup(name)
		if !ok {
			if !doc.RequiresExtension(name) {
				Logger().Warn("jxf: passing through unhandled extension", "extension", name)
			}
			continue
		}
		next, err := h.Apply(out, doc.Extensions[name])
		if err != nil {
			return nil, &ExtensionError{Name: name, Err: err}
		}
		if next != nil {
			out = next
		}
	}
	return out, nil
}

// ExtensionFunc adapts a function to ExtensionHandler for a single name.
type ExtensionFunc struct {
	Name string
	Fn   func(doc *Document, payload RawValue) (*Document, error)
}

// CanHandle reports whether name is f.Name.
func (f ExtensionFunc) CanHandle(name string) bool { return name == f.Name }

// Apply calls f.Fn.
func (f ExtensionFunc) Apply(doc *Document, payload RawValue) (*Document, error) {
	return f.Fn(doc, payload)
}
