// aviation/aviation_test.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyatc/radiopanel/math"
)

func TestFrequency(t *testing.T) {
	for _, tc := range []struct {
		mhz  float64
		freq Frequency
		str  string
	}{
		{118.0, 118000, "118.000"},
		{121.5, 121500, "121.500"},
		{123.125, 123130, "123.130"},
		{118.004, 118000, "118.000"},
		{134.0, 134000, "134.000"},
	} {
		if f := NewFrequency(tc.mhz); f != tc.freq {
			t.Errorf("NewFrequency(%f) = %d, expected %d", tc.mhz, f, tc.freq)
		} else if f.String() != tc.str {
			t.Errorf("%d: String() = %q, expected %q", f, f.String(), tc.str)
		}
	}

	for _, tc := range []struct {
		hz   float64
		freq Frequency
	}{
		{118_000_000, 118000},
		{121_500_000, 121500},
		{118_704_999, 118700},
		{118_705_000, 118710},
		{0, 0},
	} {
		if f := FrequencyFromHz(tc.hz); f != tc.freq {
			t.Errorf("FrequencyFromHz(%f) = %d, expected %d", tc.hz, f, tc.freq)
		}
	}

	if UnknownFrequency.String() != "unknown" {
		t.Errorf("unexpected UnknownFrequency string %q", UnknownFrequency.String())
	}
}

func TestFrequencyJSON(t *testing.T) {
	var fs []Frequency
	if err := json.Unmarshal([]byte(`[118.1, "121.75", " 134.000 "]`), &fs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs) != 3 || fs[0] != 118100 || fs[1] != 121750 || fs[2] != 134000 {
		t.Errorf("unexpected frequencies %v", fs)
	}

	for _, bad := range []string{`"tower"`, `true`, `-1`, `"-118.0"`} {
		var f Frequency
		if err := json.Unmarshal([]byte(bad), &f); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("%s: expected ErrInvalidFrequency, got %v", bad, err)
		}
	}

	b, err := json.Marshal(Frequency(118705))
	if err != nil || string(b) != "118.705" {
		t.Errorf("Marshal: got %s, %v", b, err)
	}
}

func TestStationCategoryRange(t *testing.T) {
	for _, tc := range []struct {
		cat StationCategory
		nm  float64
	}{
		{CategoryTower, 10},
		{CategoryGround, 5},
		{CategoryATIS, 70},
		{CategoryAFIS, 20},
		{CategoryAD, 50},
		{CategoryArrival, 60},
		{CategoryApproachDepart, 50},
		{CategoryArrivalDepart, 50},
		{CategoryApproach, 50},
		{CategoryDeparture, 50},
		{CategoryCenter, 99999},
		{CategoryOther, 15},
		{"DEL", 15},
		{"", 15},
	} {
		if r := tc.cat.Range(); r != tc.nm {
			t.Errorf("%q: range %f, expected %f", tc.cat, r, tc.nm)
		}
	}

	if !gomath.IsInf(CategoryGuard.Range(), 1) {
		t.Errorf("GUARD range should be unlimited")
	}
}

func TestChatterWeight(t *testing.T) {
	if LargeAirport.ChatterWeight() != 1 || MediumAirport.ChatterWeight() != 0.6 ||
		SmallAirport.ChatterWeight() != 0.3 || AirportSize("heliport").ChatterWeight() != 0.3 {
		t.Errorf("unexpected airport size weights")
	}
	if GuardStation().ChatterWeight != 0.01 || CenterStation().ChatterWeight != 1 {
		t.Errorf("unexpected synthetic station weights")
	}
	if GuardStation().Frequency != 121500 || CenterStation().Frequency != 134000 {
		t.Errorf("unexpected synthetic station frequencies")
	}
}

const testAirports = `[
  {"icao": "lows", "name": "Salzburg Airport", "type": "medium_airport", "iso_country": "AT",
   "latitude_deg": 47.793301, "longitude_deg": 13.0043, "elevation_ft": 1411,
   "freq": [{"description": "ATIS", "frequency_mhz": "125.730"},
            {"description": "TWR", "frequency_mhz": 118.1}]},
  {"icao": "", "name": "Nameless"},
  {"icao": "EDMA", "name": "Augsburg Airport", "type": "small_airport",
   "latitude_deg": 48.425201, "longitude_deg": 10.9317,
   "freq": [{"description": "A/D", "frequency_mhz": "124.980"}]}
]`

func TestParseAirports(t *testing.T) {
	db, err := ParseAirports([]byte(testAirports))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("expected 2 airports, got %d", db.Len())
	}

	ap, ok := db.Lookup(" lows")
	if !ok {
		t.Fatalf("LOWS not found")
	}
	if ap.ICAO != "LOWS" || ap.Size != MediumAirport || ap.Location() != (math.Point2LL{13.0043, 47.793301}) {
		t.Errorf("unexpected airport %+v", ap)
	}
	if f, ok := ap.ATISFrequency(); !ok || f != 125730 {
		t.Errorf("ATIS frequency %v, %v", f, ok)
	}

	st := ap.Stations()
	if len(st) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(st))
	}
	if st[1].Category != CategoryTower || st[1].Frequency != 118100 || st[1].ChatterWeight != 0.6 ||
		st[1].Airport != "LOWS" || st[1].Location != ap.Location() {
		t.Errorf("unexpected station %+v", st[1])
	}

	// Lookup hands out copies.
	ap.Frequencies[0].Frequency = 0
	if again, _ := db.Lookup("LOWS"); again.Frequencies[0].Frequency != 125730 {
		t.Errorf("Lookup returned shared frequency slice")
	}

	if ap, _ := db.Lookup("EDMA"); len(ap.Frequencies) != 1 {
		t.Errorf("unexpected EDMA frequencies %+v", ap.Frequencies)
	} else if _, ok := ap.ATISFrequency(); ok {
		t.Errorf("EDMA has no ATIS")
	}

	if _, err := db.LookupErr("XXXX"); !errors.Is(err, ErrUnknownAirport) {
		t.Errorf("expected ErrUnknownAirport, got %v", err)
	}

	if _, err := ParseAirports([]byte(`{"icao": "LOWS"}`)); !errors.Is(err, ErrInvalidAirportDB) {
		t.Errorf("expected ErrInvalidAirportDB, got %v", err)
	}
}

func TestDefaultAirportDB(t *testing.T) {
	db, err := DefaultAirportDB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, icao := range []string{"EDDM", "LOWS", "LSZH", "KJFK"} {
		if ap, ok := db.Lookup(icao); !ok {
			t.Errorf("%s: missing from bundled airports", icao)
		} else if _, ok := ap.ATISFrequency(); !ok {
			t.Errorf("%s: no ATIS frequency", icao)
		}
	}
}

func TestLoadAirportDBCache(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	t.Setenv("LocalAppData", filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "airports.json")
	if err := os.WriteFile(path, []byte(testAirports), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := LoadAirportDB(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("expected 2 airports, got %d", db.Len())
	}

	// Second load comes from the cache and must match.
	cached, err := LoadAirportDB(path, nil)
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if ap, ok := cached.Lookup("LOWS"); !ok || len(ap.Frequencies) != 2 || ap.Frequencies[0].Frequency != 125730 {
		t.Errorf("unexpected cached LOWS %+v", ap)
	}

	// Modifying the source invalidates the cache.
	if err := os.WriteFile(path, []byte(`[{"icao": "EDDM", "name": "Munich"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	db, err = LoadAirportDB(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := db.Lookup("EDDM"); !ok || db.Len() != 1 {
		t.Errorf("cache not invalidated: %d airports", db.Len())
	}

	if _, err := LoadAirportDB(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Errorf("expected error for missing file")
	}
}
