// internal/models/equipment.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServiceMode = errors.New("INVALID_SERVICE_MODE")

// MaxEquipmentItems is the number of equipment entries a single visit may cover.
const MaxEquipmentItems = 3

type ServiceMode string

const (
	ServiceRepair       ServiceMode = "repair"
	ServiceMaintenance  ServiceMode = "maintenance"
	ServiceInstallation ServiceMode = "installation"
)

// ParseServiceMode maps Portuguese and English spellings onto a ServiceMode.
// An empty value means repair.
func ParseServiceMode(s string) (ServiceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "repair", "conserto", "reparo":
		return ServiceRepair, nil
	case "maintenance", "manutenção", "manutencao", "preventiva":
		return ServiceMaintenance, nil
	case "installation", "install", "instalação", "instalacao":
		return ServiceInstallation, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidServiceMode, s)
}

func (m *ServiceMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidServiceMode, string(data))
	}
	parsed, err := ParseServiceMode(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// EquipmentItem is one (equipment, problem, service mode) entry of a request.
type EquipmentItem struct {
	Equipment   string      `json:"equipment" validate:"required"`
	Problem     string      `json:"problem,omitempty"`
	ServiceMode ServiceMode `json:"serviceMode,omitempty"`
}

// NormalizeEquipment lowercases and trims an equipment name for matching and pricing.
func NormalizeEquipment(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CompactEquipment drops entries without an equipment name and caps the list at
// MaxEquipmentItems. Order is preserved.
func CompactEquipment(items []EquipmentItem) []EquipmentItem {
	out := make([]EquipmentItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Equipment) == "" {
			continue
		}
		if it.ServiceMode == "" {
			it.ServiceMode = ServiceRepair
		}
		it.Equipment = strings.TrimSpace(it.Equipment)
		it.Problem = strings.TrimSpace(it.Problem)
		out = append(out, it)
		if len(out) == MaxEquipmentItems {
			break
		}
	}
	return out
}

// EquipmentNames returns the equipment names in request order.
func EquipmentNames(items []EquipmentItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Equipment
	}
	return names
}

// Problems returns the problem descriptions in request order.
func Problems(items []EquipmentItem) []string {
	problems := make([]string, len(items))
	for i, it := range items {
		problems[i] = it.Problem
	}
	return problems
}
