// internal/workers/scheduling/schedule-appointment/config.go
package scheduleappointment

import (
	"time"

	"fieldservice-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	Location *time.Location
	MaxSlots int
	Pricing  PriceTable
}

func DefaultConfig() *Config {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		Timeout:  30 * time.Second,
		Location: loc,
		MaxSlots: 3,
		Pricing:  DefaultPriceTable(),
	}
}

func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if wcfg := config.GetWorkerConfig(cfg, TaskType); wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if cfg.Scheduling.Timezone != "" {
		c.Location = cfg.Scheduling.Location()
	}
	if cfg.Scheduling.MaxOfferedSlots > 0 {
		c.MaxSlots = cfg.Scheduling.MaxOfferedSlots
	}

	p := cfg.Pricing
	if len(p.Equipment) > 0 {
		c.Pricing.Prices = make(map[string]float64, len(p.Equipment))
		for name, price := range p.Equipment {
			c.Pricing.Prices[normalizeKey(name)] = price
		}
	}
	if p.DefaultPrice > 0 {
		c.Pricing.DefaultPrice = p.DefaultPrice
	}
	if p.ExtraEquipmentSurcharge > 0 {
		c.Pricing.ExtraSurcharge = p.ExtraEquipmentSurcharge
	}
	return c
}
