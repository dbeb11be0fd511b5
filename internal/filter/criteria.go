package filter

import (
	"slices"

	"mlsscout/internal/geo"
)

// DefaultMaxDistanceMiles is used when a location is given without a radius.
const DefaultMaxDistanceMiles = 2.0

// Criteria selects which checks run and with what parameters. A zero or nil
// field disables its check. Criteria is a value type: build it once with
// NewCriteria and pass it around; the engine never writes to it.
type Criteria struct {
	Zones        []string
	ExcludeZones bool

	PropertyTypes []string
	ExcludeTypes  bool

	MinLotSize *int

	Location         *geo.Point
	MaxDistanceMiles float64

	SchoolNames []string

	BoundaryName string
}

// Option configures Criteria in NewCriteria.
type Option func(*Criteria)

// NewCriteria applies opts to an empty criteria set. Slices and pointers are
// copied so later changes by the caller cannot leak into a running session.
func NewCriteria(opts ...Option) Criteria {
	c := Criteria{MaxDistanceMiles: DefaultMaxDistanceMiles}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithZones enables the zone check. exclude turns the list into a blacklist.
func WithZones(zones []string, exclude bool) Option {
	return func(c *Criteria) {
		c.Zones = slices.Clone(zones)
		c.ExcludeZones = exclude
	}
}

// WithPropertyTypes enables the property-type check.
func WithPropertyTypes(types []string, exclude bool) Option {
	return func(c *Criteria) {
		c.PropertyTypes = slices.Clone(types)
		c.ExcludeTypes = exclude
	}
}

// WithMinLotSize enables the lot size check (square feet).
func WithMinLotSize(sqft int) Option {
	return func(c *Criteria) {
		c.MinLotSize = &sqft
	}
}

// WithLocation enables the distance check. A non-positive radius keeps the
// default.
func WithLocation(p geo.Point, maxMiles float64) Option {
	return func(c *Criteria) {
		c.Location = &p
		if maxMiles > 0 {
			c.MaxDistanceMiles = maxMiles
		}
	}
}

// WithSchools enables the school-remarks check.
func WithSchools(names []string) Option {
	return func(c *Criteria) {
		c.SchoolNames = slices.Clone(names)
	}
}

// WithBoundary enables the named-boundary check.
func WithBoundary(name string) Option {
	return func(c *Criteria) {
		c.BoundaryName = name
	}
}
