// aviation/db.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/skyatc/radiopanel/log"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/util"
)

//go:embed resources/airports.json.zst
var resourcesFS embed.FS

const defaultAirportsResource = "resources/airports.json.zst"

// AirportFrequency is a single entry of an airport's "freq" list.
type AirportFrequency struct {
	Category  StationCategory `json:"description"`
	Frequency Frequency       `json:"frequency_mhz"`
}

// Airport is one record of the airport list: the OurAirports fields the
// radio model needs plus the airport's published frequencies.
type Airport struct {
	ICAO        string             `json:"icao"`
	Name        string             `json:"name"`
	Size        AirportSize        `json:"type"`
	Country     string             `json:"iso_country,omitempty"`
	Latitude    float64            `json:"latitude_deg"`
	Longitude   float64            `json:"longitude_deg"`
	Frequencies []AirportFrequency `json:"freq"`
}

func (ap Airport) Location() math.Point2LL {
	return math.Point2LL{ap.Longitude, ap.Latitude}
}

// Stations returns a Station for each of the airport's frequencies.
func (ap Airport) Stations() []Station {
	st := make([]Station, 0, len(ap.Frequencies))
	for _, f := range ap.Frequencies {
		st = append(st, Station{
			Airport:       ap.ICAO,
			AirportName:   ap.Name,
			Category:      f.Category,
			Frequency:     f.Frequency,
			Location:      ap.Location(),
			ChatterWeight: ap.Size.ChatterWeight(),
		})
	}
	return st
}

// ATISFrequency returns the airport's ATIS frequency, if it has one.
func (ap Airport) ATISFrequency() (Frequency, bool) {
	for _, f := range ap.Frequencies {
		if f.Category == CategoryATIS {
			return f.Frequency, true
		}
	}
	return 0, false
}

// AirportDB holds airports indexed by upper-case ICAO code. It is
// read-only once loaded.
type AirportDB struct {
	Airports map[string]Airport
	Source   string
	ModTime  time.Time
}

func (db *AirportDB) Lookup(icao string) (Airport, bool) {
	if db == nil {
		return Airport{}, false
	}
	ap, ok := db.Airports[strings.ToUpper(strings.TrimSpace(icao))]
	if ok {
		ap.Frequencies = slices.Clone(ap.Frequencies)
	}
	return ap, ok
}

// LookupErr is Lookup that returns ErrUnknownAirport for missing codes.
func (db *AirportDB) LookupErr(icao string) (Airport, error) {
	if ap, ok := db.Lookup(icao); ok {
		return ap, nil
	}
	return Airport{}, fmt.Errorf("%q: %w", icao, ErrUnknownAirport)
}

func (db *AirportDB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.Airports)
}

// ParseAirports parses a JSON array of airport records. Fields other than
// the ones in Airport are ignored. Records without an ICAO code are
// skipped; later duplicates replace earlier ones.
func ParseAirports(b []byte) (*AirportDB, error) {
	var list []Airport
	if err := util.UnmarshalJSONBytes(b, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAirportDB, err)
	}

	db := &AirportDB{Airports: make(map[string]Airport, len(list))}
	for _, ap := range list {
		icao := strings.ToUpper(strings.TrimSpace(ap.ICAO))
		if icao == "" {
			continue
		}
		ap.ICAO = icao
		db.Airports[icao] = ap
	}
	return db, nil
}

// DefaultAirportDB returns the small airport list bundled with the
// program.
func DefaultAirportDB() (*AirportDB, error) {
	b, err := util.ReadResource(resourcesFS, defaultAirportsResource)
	if err != nil {
		return nil, err
	}
	db, err := ParseAirports(b)
	if err != nil {
		return nil, err
	}
	db.Source = defaultAirportsResource
	return db, nil
}

// AirportCacheDir is the cache subdirectory holding parsed airport lists.
const AirportCacheDir = "airports"

func airportCachePath(abs string) string {
	return filepath.Join(AirportCacheDir, strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(abs)+".msgpack")
}

// LoadAirportDB loads the airport list at path, which may be zstd
// compressed. Parsed databases are cached; the cached copy is used as long
// as the source file has not been modified since it was parsed.
func LoadAirportDB(path string, lg *log.Logger) (*AirportDB, error) {
	if path == "" {
		return DefaultAirportDB()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	cachePath := airportCachePath(abs)
	var cached AirportDB
	if err := util.CacheRetrieveObject(cachePath, &cached); err == nil &&
		cached.Source == abs && cached.ModTime.Equal(fi.ModTime()) {
		lg.Debugf("%s: using cached airport database (%d airports)", abs, len(cached.Airports))
		return &cached, nil
	}

	start := time.Now()
	b, err := util.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	db, err := ParseAirports(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db.Source = abs
	db.ModTime = fi.ModTime()
	lg.Infof("%s: parsed %d airports in %s", abs, len(db.Airports), time.Since(start))

	if err := util.CacheStoreObject(cachePath, db); err != nil {
		lg.Warnf("%s: unable to cache airport database: %v", abs, err)
	}
	return db, nil
}
