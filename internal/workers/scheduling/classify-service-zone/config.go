// internal/workers/scheduling/classify-service-zone/config.go
package classifyservicezone

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fieldservice-workers/internal/common/config"
	"fieldservice-workers/internal/models"
)

type Config struct {
	Timeout    time.Duration
	Reference  models.Coordinates
	ZoneAMaxKm float64
	ZoneBMaxKm float64

	// Postal prefix tables are checked A, B, C in that order.
	PrefixesA PrefixTable
	PrefixesB PrefixTable
	PrefixesC PrefixTable

	CitiesA []string
	CitiesB []string
}

var (
	defaultPrefixesA = []string{"01000..01599", "04500..04599", "05400..05499"}
	defaultPrefixesB = []string{
		"02000..03999", "04000..04499", "04600..04999", "05000..05399",
		"05500..05899", "06000..06299", "07000..07399", "09000..09899",
	}
	defaultPrefixesC = []string{"06300..06999", "07400..07999", "08000..08499", "11000..11999", "12000..13999"}

	defaultCitiesA = []string{"são paulo", "sao paulo"}
	defaultCitiesB = []string{
		"guarulhos", "osasco", "santo andré", "santo andre",
		"são bernardo", "sao bernardo", "são caetano", "sao caetano",
		"barueri", "diadema", "taboão da serra", "taboao da serra",
		"carapicuíba", "carapicuiba",
	}
)

// DefaultConfig is centred on São Paulo with the Greater São Paulo tables.
func DefaultConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		Reference:  models.Coordinates{Latitude: -23.5505, Longitude: -46.6333},
		ZoneAMaxKm: 10,
		ZoneBMaxKm: 25,
		PrefixesA:  MustParsePrefixTable(defaultPrefixesA),
		PrefixesB:  MustParsePrefixTable(defaultPrefixesB),
		PrefixesC:  MustParsePrefixTable(defaultPrefixesC),
		CitiesA:    defaultCitiesA,
		CitiesB:    defaultCitiesB,
	}
}

// LoadConfig overlays the application config on DefaultConfig. Empty tables
// keep the defaults.
func LoadConfig(cfg *config.Config) (*Config, error) {
	c := DefaultConfig()
	if cfg == nil {
		return c, nil
	}

	wcfg := config.GetWorkerConfig(cfg, TaskType)
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}

	s := cfg.Scheduling
	if s.ReferenceLatitude != 0 || s.ReferenceLongitude != 0 {
		c.Reference = models.Coordinates{Latitude: s.ReferenceLatitude, Longitude: s.ReferenceLongitude}
	}
	if s.ZoneAMaxKm > 0 {
		c.ZoneAMaxKm = s.ZoneAMaxKm
	}
	if s.ZoneBMaxKm > 0 {
		c.ZoneBMaxKm = s.ZoneBMaxKm
	}

	tables := []struct {
		entries []string
		dst     *PrefixTable
		zone    models.LogisticZone
	}{
		{cfg.Zones.PostalPrefixes.A, &c.PrefixesA, models.ZoneA},
		{cfg.Zones.PostalPrefixes.B, &c.PrefixesB, models.ZoneB},
		{cfg.Zones.PostalPrefixes.C, &c.PrefixesC, models.ZoneC},
	}
	for _, tbl := range tables {
		if len(tbl.entries) == 0 {
			continue
		}
		parsed, err := ParsePrefixTable(tbl.entries)
		if err != nil {
			return nil, fmt.Errorf("zones.postal_prefixes.%s: %w", strings.ToLower(tbl.zone.String()), err)
		}
		*tbl.dst = parsed
	}

	if len(cfg.Zones.Cities.A) > 0 {
		c.CitiesA = lowerAll(cfg.Zones.Cities.A)
	}
	if len(cfg.Zones.Cities.B) > 0 {
		c.CitiesB = lowerAll(cfg.Zones.Cities.B)
	}
	return c, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PrefixTable is a set of 5-digit postal prefixes held as inclusive ranges.
type PrefixTable []prefixRange

type prefixRange struct {
	lo, hi int
}

// ParsePrefixTable accepts exact prefixes ("01310") and inclusive ranges ("01000..01599").
func ParsePrefixTable(entries []string) (PrefixTable, error) {
	table := make(PrefixTable, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		lo, hi, isRange := strings.Cut(entry, "..")
		if !isRange {
			hi = lo
		}
		from, err := parsePrefix(lo)
		if err != nil {
			return nil, err
		}
		to, err := parsePrefix(hi)
		if err != nil {
			return nil, err
		}
		if to < from {
			return nil, fmt.Errorf("prefix range %q is reversed", entry)
		}
		table = append(table, prefixRange{lo: from, hi: to})
	}
	return table, nil
}

func MustParsePrefixTable(entries []string) PrefixTable {
	t, err := ParsePrefixTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

func parsePrefix(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 {
		return 0, fmt.Errorf("postal prefix %q must have 5 digits", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("postal prefix %q is not numeric", s)
	}
	return n, nil
}

// Contains reports whether the 5-digit prefix is in the table.
func (t PrefixTable) Contains(prefix string) bool {
	n, err := parsePrefix(prefix)
	if err != nil {
		return false
	}
	for _, r := range t {
		if n >= r.lo && n <= r.hi {
			return true
		}
	}
	return false
}
