package internal

import (
	"sort"
	"sync"
)

// Scope holds the variables visible to a running program.
// Lookups fall back to the parent chain; assignments always bind locally.
type Scope struct {
	vars   map[string]any
	parent *Scope
	mu     sync.RWMutex
}

// NewScope creates a root scope seeded with a deep copy of data.
// If data is nil, the scope starts empty.
func NewScope(data map[string]any) *Scope {
	vars := make(map[string]any, len(data))
	for k, v := range data {
		vars[k] = CopyValue(v)
	}
	return &Scope{vars: vars}
}

// Get resolves name through the scope chain.
// Returns the value and true if found, or nil and false if not found.
func (s *Scope) Get(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		val, ok := cur.vars[name]
		cur.mu.RUnlock()
		if ok {
			return val, true
		}
	}
	return nil, false
}

// Set binds name in this scope.
func (s *Scope) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[name] = value
}

// Has checks if name resolves anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Child creates a nested scope whose lookups fall back to s.
func (s *Scope) Child() *Scope {
	return &Scope{vars: make(map[string]any), parent: s}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Locals returns a copy of the variables bound directly in this scope.
func (s *Scope) Locals() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		result[k] = v
	}
	return result
}

// Names returns the sorted names bound directly in this scope.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
