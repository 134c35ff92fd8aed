// internal/workers/scheduling/score-technicians/config.go
package scoretechnicians

import (
	"time"

	"fieldservice-workers/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	MaxAlternatives int
	DefaultCapacity int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		MaxAlternatives: 2,
		DefaultCapacity: 4,
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
	return c
}
