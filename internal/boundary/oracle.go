// Package boundary answers "is this point inside that named region?" for the
// listing filters. Implementations range from polygon layers held in memory to
// external scripts; callers only see the Oracle interface.
package boundary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownBoundary is returned when no oracle is registered for a name.
var ErrUnknownBoundary = errors.New("unknown boundary")

// Oracle reports whether a WGS-84 point lies inside the named boundary.
type Oracle interface {
	Contains(ctx context.Context, lat, lon float64, name string) (bool, error)
}

// Registry dispatches to one oracle per boundary name. Names are matched
// case-insensitively.
type Registry struct {
	oracles map[string]Oracle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{oracles: make(map[string]Oracle)}
}

// Register binds name to o, replacing any previous binding.
func (r *Registry) Register(name string, o Oracle) {
	r.oracles[normalizeName(name)] = o
}

// Names lists registered boundary names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.oracles))
	for n := range r.oracles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.oracles[normalizeName(name)]
	return ok
}

// Contains implements Oracle.
func (r *Registry) Contains(ctx context.Context, lat, lon float64, name string) (bool, error) {
	o, ok := r.oracles[normalizeName(name)]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownBoundary, name)
	}
	return o.Contains(ctx, lat, lon, name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
