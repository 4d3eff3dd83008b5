// Package geofence implements the circular allowed-area check used by
// the verification gate.
package geofence

import "math"

// earthRadiusMeters is the mean spherical Earth radius.
const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees. Callers
// are responsible for range validation (lat in [-90,90], lon in
// [-180,180]); out-of-range input is a contract violation, not a
// runtime failure this package reports.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is within WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the great-circle distance between two coordinates
// in meters, using the haversine formula on a spherical Earth.
func Distance(a, b Coordinate) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	deltaPhi := radians(b.Lat - a.Lat)
	deltaLambda := radians(b.Lon - a.Lon)

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// WithinRadius reports whether observed lies within radiusMeters of
// reference. A distance exactly equal to the radius counts as inside.
func WithinRadius(observed, reference Coordinate, radiusMeters int) bool {
	return Distance(observed, reference) <= float64(radiusMeters)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
