package vm

import (
	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/value"
)

// Store is a lexical scope's name -> value mapping with an optional
// parent link. Stores are shared by reference: a nested frame invoked
// via call may alias its caller's store, making writes visible across
// scopes that inherit it.
type Store struct {
	vars   map[string]*value.Value
	parent *Store
}

// NewStore creates a store, optionally chained to parent.
func NewStore(parent *Store) *Store {
	return &Store{
		vars:   make(map[string]*value.Value),
		parent: parent,
	}
}

// Define writes name locally, overwriting any prior entry with the same
// name in this same store (shadowing any parent definition).
func (s *Store) Define(name string, v value.Value) {
	vv := v
	s.vars[name] = &vv
}

// Get resolves name, walking the parent chain, or fails UndefinedVariable
// at pos.
func (s *Store) Get(name string, pos int) (value.Value, error) {
	for store := s; store != nil; store = store.parent {
		if v, ok := store.vars[name]; ok {
			return *v, nil
		}
	}
	return value.Value{}, dverr.New(dverr.UndefinedVariable, pos, "undefined variable %q", name)
}

// Names returns the locally-defined names in this store (not its
// ancestors), for debugger inspection.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	return names
}
