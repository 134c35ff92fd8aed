// internal/workers/scheduling/plan-availability/config.go
package planavailability

import (
	"time"

	"fieldservice-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	Location     *time.Location
	UrgentDays   int
	StandardDays int
	MaxSlots     int
}

func DefaultConfig() *Config {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		Timeout:      15 * time.Second,
		Location:     loc,
		UrgentDays:   2,
		StandardDays: 5,
		MaxSlots:     3,
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

	s := cfg.Scheduling
	if s.Timezone != "" {
		c.Location = s.Location()
	}
	if s.UrgentWindowDays > 0 {
		c.UrgentDays = s.UrgentWindowDays
	}
	if s.StandardWindowDays > 0 {
		c.StandardDays = s.StandardWindowDays
	}
	if s.MaxOfferedSlots > 0 {
		c.MaxSlots = s.MaxOfferedSlots
	}
	return c
}
