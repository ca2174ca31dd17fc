package lang

import "sort"

// Registry maps file extensions to language adapters.
type Registry struct {
	byExt map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Adapter)}
}

// Register adds an adapter under each of its extensions.
func (r *Registry) Register(a Adapter) {
	for _, ext := range a.Extensions() {
		r.byExt[ext] = a
	}
}

// ByExtension returns the adapter for a file suffix like "py".
func (r *Registry) ByExtension(ext string) (Adapter, bool) {
	a, ok := r.byExt[ext]
	return a, ok
}

// Extensions returns the registered suffixes, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

var global = NewRegistry()

// Register adds an adapter to the global registry. Called from each
// language package's init().
func Register(a Adapter) {
	global.Register(a)
}

// Global returns the process-wide registry the language packages register
// into.
func Global() *Registry {
	return global
}
