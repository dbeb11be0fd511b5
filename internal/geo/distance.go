// Package geo holds the small amount of spherical and planar geometry the
// listing filters need: great-circle distance, coordinate parsing and the
// Lambert conformal projection used by state-plane boundary layers.
package geo

import (
	"math"
	"strconv"
	"strings"
)

const (
	earthRadiusKm = 6371.0
	milesPerKm    = 0.621371
)

// Point is a WGS-84 latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// ParsePoint parses "lat,lon".
func ParsePoint(s string) (Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, false
	}
	lat, lon, ok := ParseLatLon(parts[0], parts[1])
	return Point{Lat: lat, Lon: lon}, ok
}

// ParseLatLon parses raw latitude and longitude strings. ok is false unless
// both parse to finite numbers.
func ParseLatLon(latStr, lonStr string) (float64, float64, bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil || !finite(lat) || !finite(lon) {
		return lat, lon, false
	}
	return lat, lon, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DistanceMiles returns the haversine great-circle distance in miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * milesPerKm
}
