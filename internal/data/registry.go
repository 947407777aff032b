package data

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// Registry owns the named sources of a chart and reloads them from their
// specs. File-backed sources whose fingerprint is unchanged are left
// alone so an unrelated file save does not force a full pass.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*Source
	loaded  map[string]Loaded
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*Source),
		loaded:  make(map[string]Loaded),
	}
}

// Source returns the named source.
func (r *Registry) Source(name string) (*Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Files returns the data files backing registered sources.
func (r *Registry) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []string
	for _, l := range r.loaded {
		if l.Spec.File != "" {
			files = append(files, l.Spec.File)
		}
	}
	sort.Strings(files)
	return files
}

// Sync loads specs and brings the registry in line with them: new names
// get a new Source, changed contents Reset the existing Source, and names
// no longer declared are dropped. It returns the names whose contents
// changed. On a load error the registry is left untouched.
func (r *Registry) Sync(ctx context.Context, specs []Spec) ([]string, error) {
	loaded, err := LoadAll(ctx, specs)
	if err != nil {
		return nil, err
	}

	type reset struct {
		src   *Source
		items []Item
	}
	var resets []reset
	var changed []string

	r.mu.Lock()
	for name := range r.sources {
		if _, ok := loaded[name]; !ok {
			delete(r.sources, name)
			delete(r.loaded, name)
		}
	}
	for name, l := range loaded {
		src, ok := r.sources[name]
		if !ok {
			r.sources[name] = NewSource(name, l.Items)
			r.loaded[name] = l
			changed = append(changed, name)
			continue
		}
		if sameContents(r.loaded[name], l) {
			continue
		}
		r.loaded[name] = l
		resets = append(resets, reset{src: src, items: l.Items})
		changed = append(changed, name)
	}
	r.mu.Unlock()

	// Observers run outside the registry lock.
	for _, rs := range resets {
		rs.src.Reset(rs.items)
	}
	sort.Strings(changed)
	return changed, nil
}

func sameContents(a, b Loaded) bool {
	if a.Spec.File != b.Spec.File || a.Spec.Sheet != b.Spec.Sheet || a.Spec.Header != b.Spec.Header {
		return false
	}
	if a.Spec.File != "" {
		return a.Fingerprint == b.Fingerprint
	}
	return reflect.DeepEqual(a.Items, b.Items)
}
