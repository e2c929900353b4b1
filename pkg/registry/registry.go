// Package registry maps names to constructors that decode their own raw JSON
// configuration block.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrNotFound = errors.New("not registered")

// Creator builds a C from its configuration block. deps carries whatever
// every creator of the registry shares, such as a logger or a clock.
type Creator[C, P any] func(config json.RawMessage, deps P) (C, error)

type Registry[C, P any] struct {
	kind     string
	deps     P
	creators map[string]Creator[C, P]
}

// New returns an empty registry. kind names what it creates in errors, for
// example "input backend".
func New[C, P any](kind string, deps P) *Registry[C, P] {
	return &Registry[C, P]{
		kind:     kind,
		deps:     deps,
		creators: make(map[string]Creator[C, P]),
	}
}

func (r *Registry[C, P]) Register(name string, creator Creator[C, P]) {
	if _, ok := r.creators[name]; ok {
		panic(fmt.Sprintf("%s %q registered twice", r.kind, name))
	}
	r.creators[name] = creator
}

// Names lists the registered names in sorted order.
func (r *Registry[C, P]) Names() []string {
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry[C, P]) New(name string, config json.RawMessage) (C, error) {
	creator, ok := r.creators[name]
	if !ok {
		var zero C
		return zero, fmt.Errorf("%s %q %w (available: %s)", r.kind, name, ErrNotFound, strings.Join(r.Names(), ", "))
	}
	return creator(config, r.deps)
}
