// Package registry implements the two-tier extension registry described
// in spec.md §4.6: a compile-time set of plugins collected via side-effect
// imports calling Register, and a mutable runtime set applications can add
// to (and later remove from) after the process starts. Lookup consults the
// runtime set first so user overrides win, then falls back to compile-time
// plugins, in unspecified order within each tier.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrUnsupported is returned when no plugin matches a requested name.
var ErrUnsupported = errors.New("registry: no plugin registered for name")

// Aliases holds the per-extension alias configuration named in spec.md
// §4.6/§9: the canonical name used when serialising metadata, plus string
// and regex aliases consulted when parsing it.
type Aliases struct {
	DefaultName string
	Strings     []string
	Regexes     []*regexp.Regexp
}

// Matches reports whether name resolves to this plugin: either an exact
// string match (default name or an explicit alias) or a regex alias match.
func (a Aliases) Matches(name string) bool {
	if name == a.DefaultName {
		return true
	}
	for _, s := range a.Strings {
		if s == name {
			return true
		}
	}
	for _, re := range a.Regexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Plugin is one entry in a Registry[T]: a name matcher plus a factory that
// builds the extension (codec, chunk grid, data type, or key encoding)
// from its metadata configuration.
type Plugin[T any] struct {
	Identifier string
	Aliases    Aliases
	// Create builds the extension from a raw JSON configuration object
	// (nil if the extension has no configuration). It returns
	// ErrUnsupported-wrapping errors only via the registry's own lookup;
	// Create itself should report configuration errors directly.
	Create func(configuration []byte) (T, error)
}

func (p Plugin[T]) matches(name string) bool {
	if p.Aliases.DefaultName == "" && len(p.Aliases.Strings) == 0 && len(p.Aliases.Regexes) == 0 {
		return name == p.Identifier
	}
	return p.Aliases.Matches(name) || name == p.Identifier
}

// Handle identifies a runtime-registered plugin so it can later be
// unregistered.
type Handle uint64

// Registry is a name -> plugin dispatch table for one extension point
// (codec, chunk grid, chunk key encoding, data type, or storage
// transformer). The zero value is not usable; use New.
type Registry[T any] struct {
	mu          sync.RWMutex
	compileTime []Plugin[T]
	runtime     map[Handle]Plugin[T]
	nextHandle  Handle
}

// New returns an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{runtime: make(map[Handle]Plugin[T])}
}

// RegisterCompileTime adds a built-in plugin. Intended to be called from
// package init() functions (the "inventory" mechanism of spec.md §4.6),
// not from application code — use RegisterRuntime for that.
func (r *Registry[T]) RegisterCompileTime(p Plugin[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compileTime = append(r.compileTime, p)
}

// RegisterRuntime adds an application-supplied plugin and returns a handle
// that can later be passed to Unregister. Runtime plugins are consulted
// before compile-time ones, so they can override a built-in name.
func (r *Registry[T]) RegisterRuntime(p Plugin[T]) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextHandle++
	h := r.nextHandle
	r.runtime[h] = p
	return h
}

// Unregister removes a previously runtime-registered plugin. It is a
// no-op if h is unknown (already unregistered, or never valid).
func (r *Registry[T]) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runtime, h)
}

// Lookup finds the first plugin (runtime set first, then compile-time set)
// whose identifier or aliases match name, and invokes its Create with
// configuration. Returns ErrUnsupported if nothing matches.
func (r *Registry[T]) Lookup(name string, configuration []byte) (T, error) {
	var zero T
	r.mu.RLock()
	// Snapshot under the read lock so Create (which may be arbitrarily
	// slow/user code) doesn't run while holding it.
	var candidates []Plugin[T]
	for _, p := range r.runtime {
		if p.matches(name) {
			candidates = append(candidates, p)
		}
	}
	for _, p := range r.compileTime {
		if p.matches(name) {
			candidates = append(candidates, p)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return candidates[0].Create(configuration)
}

// Has reports whether any plugin would match name, without constructing it.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.runtime {
		if p.matches(name) {
			return true
		}
	}
	for _, p := range r.compileTime {
		if p.matches(name) {
			return true
		}
	}
	return false
}
