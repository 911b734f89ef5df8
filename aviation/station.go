// aviation/station.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	gomath "math"

	"github.com/skyatc/radiopanel/math"
)

// StationCategory is the label airport data uses to describe what a
// frequency is for ("TWR", "GND", "ATIS", ...). Labels that are not in
// the range table are valid and fall back to CategoryOther's range.
type StationCategory string

const (
	CategoryTower          StationCategory = "TWR"
	CategoryGround         StationCategory = "GND"
	CategoryATIS           StationCategory = "ATIS"
	CategoryAFIS           StationCategory = "AFIS"
	CategoryAD             StationCategory = "A/D"
	CategoryArrival        StationCategory = "ARR"
	CategoryApproachDepart StationCategory = "APP/DEP"
	CategoryArrivalDepart  StationCategory = "ARR/DEP"
	CategoryApproach       StationCategory = "APP"
	CategoryDeparture      StationCategory = "DEP"
	CategoryGuard          StationCategory = "GUARD"
	CategoryCenter         StationCategory = "CENTER"
	CategoryOther          StationCategory = "OTHER"
)

// stationRanges gives the distance in nautical miles from the airport at
// which each category of station can be received.
var stationRanges = map[StationCategory]float64{
	CategoryTower:          10,
	CategoryGround:         5,
	CategoryATIS:           70,
	CategoryAFIS:           20,
	CategoryAD:             50,
	CategoryArrival:        60,
	CategoryApproachDepart: 50,
	CategoryArrivalDepart:  50,
	CategoryApproach:       50,
	CategoryDeparture:      50,
	CategoryGuard:          gomath.Inf(1),
	CategoryCenter:         99999,
	CategoryOther:          15,
}

// Range returns the reception range of the category in nautical miles.
func (c StationCategory) Range() float64 {
	if r, ok := stationRanges[c]; ok {
		return r
	}
	return stationRanges[CategoryOther]
}

func (c StationCategory) String() string { return string(c) }

// AirportSize follows the classification used by OurAirports.
type AirportSize string

const (
	LargeAirport  AirportSize = "large_airport"
	MediumAirport AirportSize = "medium_airport"
	SmallAirport  AirportSize = "small_airport"
)

// ChatterWeight scales how often background radio traffic is generated
// for stations at an airport of this size.
func (s AirportSize) ChatterWeight() float64 {
	switch s {
	case LargeAirport:
		return 1
	case MediumAirport:
		return 0.6
	default:
		return 0.3
	}
}

const (
	guardChatterWeight  = 0.01
	centerChatterWeight = 1
)

// Station is a single radio frequency, either at an airport or one of the
// synthetic GUARD and CENTER stations.
type Station struct {
	Airport       string // ICAO; empty for GUARD and CENTER
	AirportName   string
	Category      StationCategory
	Frequency     Frequency
	Location      math.Point2LL
	ChatterWeight float64
}

func (s Station) String() string {
	if s.Airport == "" {
		return fmt.Sprintf("%s %s", s.Category, s.Frequency)
	}
	return fmt.Sprintf("%s %s %s", s.Airport, s.Category, s.Frequency)
}

// IsAirportStation returns false for the synthetic GUARD and CENTER
// stations, which are receivable regardless of position.
func (s Station) IsAirportStation() bool {
	return s.Airport != ""
}

var (
	GuardFrequency  = NewFrequency(121.5)
	CenterFrequency = NewFrequency(134.0)
)

// GuardStation returns the international distress frequency.
func GuardStation() Station {
	return Station{Category: CategoryGuard, Frequency: GuardFrequency, ChatterWeight: guardChatterWeight}
}

// CenterStation returns the generic en-route control frequency.
func CenterStation() Station {
	return Station{Category: CategoryCenter, Frequency: CenterFrequency, ChatterWeight: centerChatterWeight}
}
