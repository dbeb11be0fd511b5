package geo

// WGS-84 → state-plane Lambert Conformal Conic (2SP), US survey feet.
// Boundary shapefiles published by counties are usually already in one of
// these CRSs, so parcel lat/lon gets projected before point-in-polygon tests.

import (
	"fmt"
	"math"
	"strings"
)

const (
	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // NAD83 semi-major axis (metres)
	e2NAD83    = 0.00669438002290   // NAD83 eccentricity squared
)

// LambertParams describes a two-standard-parallel Lambert conformal conic zone.
type LambertParams struct {
	LatOriginDeg   float64
	Parallel1Deg   float64
	Parallel2Deg   float64
	CentralMerDeg  float64
	FalseEastingFt float64
	FalseNorthFt   float64
}

// Lambert is a ready-to-use projection with the derived constants precomputed.
type Lambert struct {
	p    LambertParams
	e    float64
	n    float64
	f    float64
	rho0 float64
}

// Presets keyed by lower-case EPSG code.
var presets = map[string]LambertParams{
	// Texas North Central, US feet.
	"epsg:2276": {
		LatOriginDeg:   31.66666666666667,
		Parallel1Deg:   32.13333333333333,
		Parallel2Deg:   33.96666666666667,
		CentralMerDeg:  -98.5,
		FalseEastingFt: 1968500.0,
		FalseNorthFt:   6561666.666666666,
	},
	// California zone III, US feet (Santa Clara County layers).
	"epsg:2227": {
		LatOriginDeg:   36.5,
		Parallel1Deg:   37.06666666666667,
		Parallel2Deg:   38.43333333333333,
		CentralMerDeg:  -120.5,
		FalseEastingFt: 6561666.667,
		FalseNorthFt:   1640416.667,
	},
}

// NewLambert derives the projection constants for p.
func NewLambert(p LambertParams) *Lambert {
	phi0 := p.LatOriginDeg * math.Pi / 180
	phi1 := p.Parallel1Deg * math.Pi / 180
	phi2 := p.Parallel2Deg * math.Pi / 180

	e := math.Sqrt(e2NAD83)
	m := func(phi float64) float64 {
		return math.Cos(phi) / math.Sqrt(1-e2NAD83*math.Sin(phi)*math.Sin(phi))
	}

	m1, m2 := m(phi1), m(phi2)
	t1, t2, t0 := tFunc(phi1, e), tFunc(phi2, e), tFunc(phi0, e)

	n := math.Log(m1/m2) / math.Log(t1/t2)
	aFt := semiMajorM * ftPerMeter
	f := aFt * m1 / (n * math.Pow(t1, n))

	return &Lambert{p: p, e: e, n: n, f: f, rho0: f * math.Pow(t0, n)}
}

// LambertPreset returns the projection registered for an EPSG code such as
// "EPSG:2227".
func LambertPreset(code string) (*Lambert, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("unsupported projection %q", code)
	}
	return NewLambert(p), nil
}

func tFunc(phi, e float64) float64 {
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
}

// Project converts decimal degrees to (northing, easting) in feet. The order
// matches the (lat, lon) ordering used for polygon rings.
func (l *Lambert) Project(latDeg, lonDeg float64) (northingFt, eastingFt float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180
	lambda0 := l.p.CentralMerDeg * math.Pi / 180

	rho := l.f * math.Pow(tFunc(phi, l.e), l.n)
	theta := l.n * (lambda - lambda0)

	eastingFt = rho*math.Sin(theta) + l.p.FalseEastingFt
	northingFt = l.rho0 - rho*math.Cos(theta) + l.p.FalseNorthFt
	return
}
