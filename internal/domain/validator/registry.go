package validator

import (
	"sort"
	"sync"

	"kitabu/internal/pkg/errs"
)

// Func is an externally supplied admission predicate usable through a
// static validator.
type Func func(c Candidate) error

// Registry maps names to static predicates. It is populated at startup;
// resolving an unregistered name fails fast.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Func)}
}

func (r *Registry) Register(name string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[name]; exists {
		return errs.Newf("static validator %q already registered", name)
	}
	r.m[name] = fn
	return nil
}

func (r *Registry) Resolve(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	if !ok {
		return nil, errs.Newf("static validator %q is not registered", name)
	}
	return fn, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
