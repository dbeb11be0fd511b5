package boundary

import (
	"fmt"

	"mlsscout/internal/config"
)

// FromConfig builds a registry holding the configured boundaries. Shapefile
// layers are only loaded for names listed in load, so a run never pays for
// polygons it does not query.
func FromConfig(defs map[string]config.BoundaryConfig, load ...string) (*Registry, error) {
	reg := NewRegistry()
	wanted := make(map[string]bool, len(load))
	for _, n := range load {
		wanted[normalizeName(n)] = true
	}

	for name, def := range defs {
		if !wanted[normalizeName(name)] {
			continue
		}
		o, err := build(def)
		if err != nil {
			return nil, fmt.Errorf("boundary %s: %w", name, err)
		}
		reg.Register(name, o)
	}

	for n := range wanted {
		if !reg.Has(n) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBoundary, n)
		}
	}
	return reg, nil
}

func build(def config.BoundaryConfig) (Oracle, error) {
	if len(def.Command) > 0 {
		return NewCommandOracle(def.Command, def.Dir)
	}
	return LoadShapefile(def.Shapefile, ShapefileOptions{
		Field:      def.Field,
		Value:      def.Value,
		Projection: def.Projection,
	})
}
