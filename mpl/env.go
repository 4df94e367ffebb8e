package mpl

import (
	"fmt"
	"sort"
)

// Env is the single flat variable store of a running program. Every sealed
// name is also bound.
type Env struct {
	values map[string]Value
	sealed map[string]struct{}
}

func NewEnv() *Env {
	return &Env{
		values: make(map[string]Value),
		sealed: make(map[string]struct{}),
	}
}

func (e *Env) Get(name string) (Value, bool) {
	val, ok := e.values[name]
	return val, ok
}

func (e *Env) Bind(name string, val Value) error {
	if _, ok := e.sealed[name]; ok {
		return fmt.Errorf("%w: %s", ErrSealed, name)
	}
	e.values[name] = val
	return nil
}

func (e *Env) Seal(name string) error {
	if _, ok := e.values[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnbound, name)
	}
	e.sealed[name] = struct{}{}
	return nil
}

// Banish drops a binding and its seal. Absent names are ignored.
func (e *Env) Banish(name string) {
	delete(e.values, name)
	delete(e.sealed, name)
}

func (e *Env) Purge() {
	clear(e.values)
	clear(e.sealed)
}

func (e *Env) IsSealed(name string) bool {
	_, ok := e.sealed[name]
	return ok
}

// Names returns the bound names in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Env) Sealed() []string {
	names := make([]string, 0, len(e.sealed))
	for name := range e.sealed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Env) Len() int {
	return len(e.values)
}
