// internal/workers/scheduling/schedule-appointment/pricing.go
package scheduleappointment

import (
	"math"
	"sort"
	"strings"

	"fieldservice-workers/internal/models"
)

// PriceTable estimates the visit cost: the primary equipment's price plus a
// flat surcharge for each additional item.
type PriceTable struct {
	Prices         map[string]float64
	DefaultPrice   float64
	ExtraSurcharge float64
}

func DefaultPriceTable() PriceTable {
	return PriceTable{
		Prices: map[string]float64{
			"fogão":       180,
			"cooktop":     160,
			"forno":       200,
			"coifa":       220,
			"depurador":   190,
			"micro-ondas": 150,
			"lava-louças": 230,
			"geladeira":   250,
		},
		DefaultPrice:   180,
		ExtraSurcharge: 80,
	}
}

// PriceOf matches the equipment name exactly first, then by the longest table
// key contained in it.
func (p PriceTable) PriceOf(equipment string) float64 {
	name := normalizeKey(equipment)
	if price, ok := p.Prices[name]; ok {
		return price
	}

	keys := make([]string, 0, len(p.Prices))
	for k := range p.Prices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if k != "" && strings.Contains(name, k) {
			return p.Prices[k]
		}
	}
	return p.DefaultPrice
}

func (p PriceTable) Estimate(equipment []string) float64 {
	if len(equipment) == 0 {
		return 0
	}
	total := p.PriceOf(equipment[0]) + float64(len(equipment)-1)*p.ExtraSurcharge
	return math.Round(total*100) / 100
}

func normalizeKey(name string) string {
	return models.NormalizeEquipment(name)
}
