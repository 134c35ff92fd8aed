// internal/workers/scheduling/classify-service-zone/classifier.go
package classifyservicezone

import (
	"context"
	"regexp"
	"strings"

	"fieldservice-workers/internal/common/geocoding"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/common/metrics"
	"fieldservice-workers/internal/models"
)

type Method string

const (
	MethodCoordinates Method = "coordinates"
	MethodPostalCode  Method = "postal_code"
	MethodCityName    Method = "city_name"
)

// Result is the zone of one address and how it was derived. Coordinates and
// DistanceKm are set only for MethodCoordinates.
type Result struct {
	Zone        models.LogisticZone `json:"zone"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	DistanceKm  *float64            `json:"distanceKm,omitempty"`
	Method      Method              `json:"method"`
	PostalCode  string              `json:"postalCode,omitempty"`
}

// CEP: 5 digits, optionally followed by "-NNN" or "NNN".
var postalCodePattern = regexp.MustCompile(`(?:^|\D)(\d{5})(?:-?\d{3})?(?:\D|$)`)

// Classifier maps an address to a logistic zone. It holds no state beyond its
// tables and is safe for concurrent use.
type Classifier struct {
	config   *Config
	geocoder geocoding.Geocoder
	logger   logger.Logger
}

// NewClassifier builds a classifier. A nil geocoder skips straight to the
// postal code and city fallbacks.
func NewClassifier(cfg *Config, geocoder geocoding.Geocoder, log logger.Logger) *Classifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Classifier{
		config:   cfg,
		geocoder: geocoder,
		logger:   log.WithFields(map[string]interface{}{"component": "zone-classifier"}),
	}
}

// Classify never fails: geocoding problems fall through to the text tables.
func (c *Classifier) Classify(ctx context.Context, address string) Result {
	result := c.classify(ctx, address)
	metrics.ZoneClassifications.WithLabelValues(string(result.Method), result.Zone.String()).Inc()
	return result
}

func (c *Classifier) classify(ctx context.Context, address string) Result {
	if coords, ok := c.geocode(ctx, address); ok {
		raw := HaversineKm(c.config.Reference, *coords)
		km := round2(raw)
		return Result{
			Zone:        c.ZoneForDistance(raw),
			Coordinates: coords,
			DistanceKm:  &km,
			Method:      MethodCoordinates,
		}
	}

	if prefix, ok := ExtractPostalPrefix(address); ok {
		return Result{
			Zone:       c.ZoneForPostalPrefix(prefix),
			Method:     MethodPostalCode,
			PostalCode: prefix,
		}
	}

	return Result{
		Zone:   c.ZoneForCity(address),
		Method: MethodCityName,
	}
}

func (c *Classifier) geocode(ctx context.Context, address string) (*models.Coordinates, bool) {
	if c.geocoder == nil || strings.TrimSpace(address) == "" {
		return nil, false
	}
	coords, err := c.geocoder.Geocode(ctx, address)
	if err != nil || coords == nil {
		c.logger.Debug("coordinates unavailable, using text fallback", map[string]interface{}{
			"error": err,
		})
		return nil, false
	}
	return coords, true
}

// ZoneForDistance buckets a distance from the reference point.
func (c *Classifier) ZoneForDistance(km float64) models.LogisticZone {
	switch {
	case km <= c.config.ZoneAMaxKm:
		return models.ZoneA
	case km <= c.config.ZoneBMaxKm:
		return models.ZoneB
	default:
		return models.ZoneC
	}
}

// ZoneForPostalPrefix looks the prefix up in the A, B and C tables. Unknown prefixes are B.
func (c *Classifier) ZoneForPostalPrefix(prefix string) models.LogisticZone {
	switch {
	case c.config.PrefixesA.Contains(prefix):
		return models.ZoneA
	case c.config.PrefixesB.Contains(prefix):
		return models.ZoneB
	case c.config.PrefixesC.Contains(prefix):
		return models.ZoneC
	default:
		return models.ZoneB
	}
}

// ZoneForCity matches city names case-insensitively, zone A first. Unknown cities are C.
func (c *Classifier) ZoneForCity(address string) models.LogisticZone {
	text := strings.ToLower(address)
	for _, city := range c.config.CitiesA {
		if strings.Contains(text, city) {
			return models.ZoneA
		}
	}
	for _, city := range c.config.CitiesB {
		if strings.Contains(text, city) {
			return models.ZoneB
		}
	}
	return models.ZoneC
}

// ExtractPostalPrefix returns the first 5 digits of the first postal code in the text.
func ExtractPostalPrefix(address string) (string, bool) {
	m := postalCodePattern.FindStringSubmatch(address)
	if m == nil {
		return "", false
	}
	return m[1], true
}
