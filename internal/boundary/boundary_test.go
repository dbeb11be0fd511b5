package boundary

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsscout/internal/config"
	"mlsscout/internal/geo"
)

// square returns a closed clockwise ring in shapefile (x, y) order.
func square(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
		{X: maxX, Y: minY},
		{X: minX, Y: minY},
	}
}

type namedRing struct {
	name string
	ring []shp.Point
}

// writeLayer writes a polygon shapefile with a single SCHOOL attribute.
func writeLayer(t *testing.T, polys ...namedRing) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundaries.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("SCHOOL", 40)}))

	for _, p := range polys {
		pl := shp.NewPolyLine([][]shp.Point{p.ring})
		poly := shp.Polygon(*pl)
		n := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(n), 0, p.name))
	}
	w.Close()
	return path
}

func TestShapefileOracle_Contains(t *testing.T) {
	path := writeLayer(t, namedRing{"Homestead", square(-122.06, 37.32, -122.00, 37.36)})

	o, err := LoadShapefile(path, ShapefileOptions{})
	require.NoError(t, err)

	inside, err := o.Contains(context.Background(), 37.34, -122.03, "homestead")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = o.Contains(context.Background(), 37.40, -122.03, "homestead")
	require.NoError(t, err)
	assert.False(t, inside)
}

func TestShapefileOracle_HoleIsOutside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "donut.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("SCHOOL", 40)}))

	// Outer ring clockwise, hole counter-clockwise.
	hole := []shp.Point{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	pl := shp.NewPolyLine([][]shp.Point{square(0, 0, 10, 10), hole})
	poly := shp.Polygon(*pl)
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "Homestead"))
	w.Close()

	o, err := LoadShapefile(path, ShapefileOptions{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"in hole", 5, 5, false},
		{"in ring", 2, 2, true},
		{"between hole and edge", 5, 8, true},
		{"outside", 12, 5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inside, err := o.Contains(context.Background(), tc.lat, tc.lon, "homestead")
			require.NoError(t, err)
			assert.Equal(t, tc.want, inside)
		})
	}
}

func TestShapefileOracle_FieldFilter(t *testing.T) {
	path := writeLayer(t,
		namedRing{"Homestead", square(-122.06, 37.32, -122.00, 37.36)},
		namedRing{"Wilcox", square(-121.99, 37.32, -121.93, 37.36)},
	)

	o, err := LoadShapefile(path, ShapefileOptions{Field: "school", Value: "wilcox"})
	require.NoError(t, err)

	inside, err := o.Contains(context.Background(), 37.34, -121.96, "wilcox")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = o.Contains(context.Background(), 37.34, -122.03, "wilcox")
	require.NoError(t, err)
	assert.False(t, inside, "polygon of another school must be ignored")

	_, err = LoadShapefile(path, ShapefileOptions{Field: "SCHOOL", Value: "Lynbrook"})
	assert.Error(t, err)
}

func TestShapefileOracle_Projected(t *testing.T) {
	proj, err := geo.LambertPreset("epsg:2227")
	require.NoError(t, err)

	// Build a square in state-plane feet around a projected point.
	n, e := proj.Project(37.34, -122.03)
	path := writeLayer(t, namedRing{"Homestead", square(e-2000, n-2000, e+2000, n+2000)})

	o, err := LoadShapefile(path, ShapefileOptions{Projection: "EPSG:2227"})
	require.NoError(t, err)

	inside, err := o.Contains(context.Background(), 37.34, -122.03, "homestead")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = o.Contains(context.Background(), 37.40, -122.03, "homestead")
	require.NoError(t, err)
	assert.False(t, inside)
}

func TestLoadShapefile_Errors(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "missing.shp"), ShapefileOptions{})
	assert.Error(t, err)

	path := writeLayer(t, namedRing{"Homestead", square(0, 0, 1, 1)})
	_, err = LoadShapefile(path, ShapefileOptions{Projection: "epsg:9999"})
	assert.Error(t, err)
}

func TestPointInPolygon(t *testing.T) {
	// Concave "L" shape in (y, x).
	ring := [][2]float64{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}, {0, 0}}
	assert.True(t, pointInPolygon(0.5, 0.5, ring))
	assert.True(t, pointInPolygon(1.5, 0.5, ring))
	assert.True(t, pointInPolygon(0.5, 1.5, ring))
	assert.False(t, pointInPolygon(1.5, 1.5, ring))
	assert.False(t, pointInPolygon(3, 3, ring))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandOracle(t *testing.T) {
	requireShell(t)

	script := `if [ "$1" = "37.5" ]; then echo true; elif [ "$1" = "0" ]; then echo maybe; else echo false; fi`
	o, err := NewCommandOracle([]string{"sh", "-c", script, "oracle"}, "")
	require.NoError(t, err)

	inside, err := o.Contains(context.Background(), 37.5, -122.0, "homestead")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = o.Contains(context.Background(), 37.6, -122.0, "homestead")
	require.NoError(t, err)
	assert.False(t, inside)

	_, err = o.Contains(context.Background(), 0, 0, "homestead")
	assert.ErrorContains(t, err, "unexpected output")
}

func TestCommandOracle_ExitFailure(t *testing.T) {
	requireShell(t)

	o, err := NewCommandOracle([]string{"sh", "-c", "echo boom >&2; exit 3", "oracle"}, "")
	require.NoError(t, err)

	_, err = o.Contains(context.Background(), 37.5, -122.0, "wilcox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewCommandOracle_Empty(t *testing.T) {
	_, err := NewCommandOracle(nil, "")
	assert.Error(t, err)
}

type stubOracle struct{ answer bool }

func (s stubOracle) Contains(context.Context, float64, float64, string) (bool, error) {
	return s.answer, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Homestead", stubOracle{answer: true})
	reg.Register("wilcox", stubOracle{answer: false})

	assert.Equal(t, []string{"homestead", "wilcox"}, reg.Names())

	inside, err := reg.Contains(context.Background(), 1, 2, "HOMESTEAD")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = reg.Contains(context.Background(), 1, 2, "wilcox")
	require.NoError(t, err)
	assert.False(t, inside)

	_, err = reg.Contains(context.Background(), 1, 2, "lynbrook")
	assert.True(t, errors.Is(err, ErrUnknownBoundary))
}

func TestFromConfig(t *testing.T) {
	path := writeLayer(t, namedRing{"Lynbrook", square(-122.02, 37.29, -121.98, 37.31)})
	defs := map[string]config.BoundaryConfig{
		"lynbrook":  {Shapefile: path, Field: "SCHOOL", Value: "Lynbrook"},
		"homestead": {Command: []string{"node", "homestead.js"}},
		"broken":    {Shapefile: filepath.Join(t.TempDir(), "missing.shp")},
	}

	reg, err := FromConfig(defs, "Lynbrook")
	require.NoError(t, err)
	assert.Equal(t, []string{"lynbrook"}, reg.Names(), "only requested layers are loaded")

	inside, err := reg.Contains(context.Background(), 37.30, -122.00, "lynbrook")
	require.NoError(t, err)
	assert.True(t, inside)

	_, err = FromConfig(defs, "monta vista")
	assert.True(t, errors.Is(err, ErrUnknownBoundary))

	_, err = FromConfig(defs, "broken")
	assert.Error(t, err)
}
