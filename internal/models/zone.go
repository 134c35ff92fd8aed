// internal/models/zone.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidZone   = errors.New("INVALID_ZONE")
	ErrInvalidRecord = errors.New("INVALID_RECORD")
)

// LogisticZone is the distance tier of an address relative to the service reference point.
type LogisticZone string

const (
	ZoneA LogisticZone = "A"
	ZoneB LogisticZone = "B"
	ZoneC LogisticZone = "C"
)

// ParseZone accepts "A", "b", "Zona C", "zone_a" and similar spellings.
func ParseZone(s string) (LogisticZone, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "zona")
	v = strings.TrimPrefix(v, "zone")
	v = strings.Trim(v, " _-:")

	switch v {
	case "a":
		return ZoneA, nil
	case "b":
		return ZoneB, nil
	case "c":
		return ZoneC, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidZone, s)
}

func (z LogisticZone) String() string {
	return string(z)
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}
