package boundary

import (
	"context"
	"fmt"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"mlsscout/internal/geo"
)

// feature represents a polygon (possibly multi-part) from a boundary
// shapefile together with its bounding box.
type feature struct {
	Parts [][][2]float64 // Each part is a closed ring of [y, x] points
	MinY  float64
	MinX  float64
	MaxY  float64
	MaxX  float64
}

// ShapefileOracle tests points against the polygons of a single layer.
type ShapefileOracle struct {
	features []feature
	proj     *geo.Lambert // nil when the layer is stored in lat/lon
}

// ShapefileOptions selects which polygons of a layer make up the boundary.
type ShapefileOptions struct {
	// Field/Value keep only polygons whose attribute Field equals Value
	// (case-insensitive). Empty Field keeps every polygon.
	Field string
	Value string
	// Projection is an EPSG code such as "epsg:2227" for layers stored in
	// state-plane feet. Empty means the layer is in WGS-84 degrees.
	Projection string
}

// LoadShapefile reads the polygon layer at path.
func LoadShapefile(path string, opts ShapefileOptions) (*ShapefileOracle, error) {
	var proj *geo.Lambert
	if opts.Projection != "" {
		p, err := geo.LambertPreset(opts.Projection)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s: %w", path, err)
		}
		proj = p
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()

	var features []feature
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			// Skip non-polygon geometries
			continue
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[strings.ToUpper(strings.Trim(f.String(), " \x00"))] = strings.Trim(r.ReadAttribute(idx, i), " \x00")
		}
		if opts.Field != "" && !strings.EqualFold(attrs[strings.ToUpper(opts.Field)], strings.TrimSpace(opts.Value)) {
			continue
		}

		features = append(features, polygonFeature(poly))
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("shapefile %s: no polygons matched", path)
	}

	return &ShapefileOracle{features: features, proj: proj}, nil
}

// polygonFeature splits the flat points slice into rings and tracks the
// bounding box while iterating.
func polygonFeature(poly *shp.Polygon) feature {
	numParts := len(poly.Parts)
	parts := make([][][2]float64, numParts)

	minY, minX := math.MaxFloat64, math.MaxFloat64
	maxY, maxX := -math.MaxFloat64, -math.MaxFloat64

	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		ring := make([][2]float64, 0, int(end-start))
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, [2]float64{pt.Y, pt.X})
			minY = math.Min(minY, pt.Y)
			maxY = math.Max(maxY, pt.Y)
			minX = math.Min(minX, pt.X)
			maxX = math.Max(maxX, pt.X)
		}
		parts[partIdx] = ring
	}

	return feature{Parts: parts, MinY: minY, MinX: minX, MaxY: maxY, MaxX: maxX}
}

// Contains implements Oracle. The name is ignored; a ShapefileOracle
// represents exactly one boundary. Features matching the point in any one of
// them count as inside.
func (s *ShapefileOracle) Contains(_ context.Context, lat, lon float64, _ string) (bool, error) {
	y, x := lat, lon
	if s.proj != nil {
		y, x = s.proj.Project(lat, lon)
	}
	for _, f := range s.features {
		if y < f.MinY || y > f.MaxY || x < f.MinX || x > f.MaxX {
			continue // quick bbox reject
		}
		if f.contains(y, x) {
			return true, nil
		}
	}
	return false, nil
}

// contains applies the even-odd rule across all rings of the feature, so a
// point inside an inner ring (a hole) is outside.
func (f feature) contains(y, x float64) bool {
	inside := false
	for _, ring := range f.Parts {
		if pointInPolygon(y, x, ring) {
			inside = !inside
		}
	}
	return inside
}

// pointInPolygon implements the ray-casting algorithm. Shapefile rings are
// closed, but closure is not required here.
func pointInPolygon(y, x float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i][0], ring[i][1]
		yj, xj := ring[j][0], ring[j][1]
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}
