// math/latlong.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	"fmt"
	gomath "math"
	"regexp"
	"strconv"
)

const (
	// EarthRadiusMeters is the mean Earth radius.
	EarthRadiusMeters     = 6371000
	MetersToNauticalMiles = 0.000539957
)

var ErrInvalidLatLong = errors.New("Invalid latitude/longitude")

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

// pair of floats (no exponents), latitude first
var reLatLongFloat = regexp.MustCompile(`^\s*(\-?[0-9]+(?:\.[0-9]+)?)\s*,\s*(\-?[0-9]+(?:\.[0-9]+)?)\s*$`)

// ParseLatLong parses a "latitude, longitude" pair of decimal degrees.
func ParseLatLong(s string) (Point2LL, error) {
	m := reLatLongFloat.FindStringSubmatch(s)
	if m == nil {
		return Point2LL{}, fmt.Errorf("%q: %w", s, ErrInvalidLatLong)
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point2LL{}, fmt.Errorf("%q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point2LL{}, fmt.Errorf("%q: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point2LL{}, fmt.Errorf("%q: %w", s, ErrInvalidLatLong)
	}
	return Point2LL{lon, lat}, nil
}

// NMDistance2LL returns the great-circle distance in nautical miles
// between two points, using the haversine formula.
func NMDistance2LL(a Point2LL, b Point2LL) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lon1 := Radians(a[1]), Radians(a[0])
	lat2, lon2 := Radians(b[1]), Radians(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	dm := EarthRadiusMeters * c // in metres

	return dm * MetersToNauticalMiles
}

// Offset2LL returns the point reached by travelling nm nautical miles from
// p along the given true bearing (degrees).
func Offset2LL(p Point2LL, bearing float64, nm float64) Point2LL {
	delta := nm / MetersToNauticalMiles / EarthRadiusMeters
	theta := Radians(bearing)
	lat1, lon1 := Radians(p[1]), Radians(p[0])

	lat2 := gomath.Asin(gomath.Sin(lat1)*gomath.Cos(delta) + gomath.Cos(lat1)*gomath.Sin(delta)*gomath.Cos(theta))
	lon2 := lon1 + gomath.Atan2(gomath.Sin(theta)*gomath.Sin(delta)*gomath.Cos(lat1),
		gomath.Cos(delta)-gomath.Sin(lat1)*gomath.Sin(lat2))

	return Point2LL{gomath.Mod(Degrees(lon2)+540, 360) - 180, Degrees(lat2)}
}
