// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Geocoding  GeocodingConfig         `mapstructure:"geocoding"`
	Scheduling SchedulingConfig        `mapstructure:"scheduling"`
	Zones      ZoneTablesConfig        `mapstructure:"zones"`
	Pricing    PricingConfig           `mapstructure:"pricing"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryDelay     int    `mapstructure:"retry_delay"` // milliseconds
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// GeocodingConfig points at a Nominatim-compatible search endpoint.
type GeocodingConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	UserAgent     string `mapstructure:"user_agent"`
	CountryCodes  string `mapstructure:"country_codes"`
	Timeout       int    `mapstructure:"timeout"`        // milliseconds
	CacheTTL      int    `mapstructure:"cache_ttl"`      // seconds
	NegativeTTL   int    `mapstructure:"negative_ttl"`   // seconds
	CacheDisabled bool   `mapstructure:"cache_disabled"` // skip redis lookups entirely
}

// SchedulingConfig drives zoning thresholds and the availability window.
type SchedulingConfig struct {
	ReferenceLatitude  float64 `mapstructure:"reference_latitude"`
	ReferenceLongitude float64 `mapstructure:"reference_longitude"`
	ZoneAMaxKm         float64 `mapstructure:"zone_a_max_km"`
	ZoneBMaxKm         float64 `mapstructure:"zone_b_max_km"`
	Timezone           string  `mapstructure:"timezone"`
	UrgentWindowDays   int     `mapstructure:"urgent_window_days"`
	StandardWindowDays int     `mapstructure:"standard_window_days"`
	MaxOfferedSlots    int     `mapstructure:"max_offered_slots"`
	QuoteTTL           int     `mapstructure:"quote_ttl"`     // seconds
	SlotLockTTL        int     `mapstructure:"slot_lock_ttl"` // seconds
}

// ZoneTablesConfig holds the fallback tables used when coordinates are unavailable.
type ZoneTablesConfig struct {
	PostalPrefixes struct {
		A []string `mapstructure:"a"`
		B []string `mapstructure:"b"`
		C []string `mapstructure:"c"`
	} `mapstructure:"postal_prefixes"`
	Cities struct {
		A []string `mapstructure:"a"`
		B []string `mapstructure:"b"`
	} `mapstructure:"cities"`
}

// PricingConfig holds the cost estimate table used on confirmation.
type PricingConfig struct {
	Equipment               map[string]float64 `mapstructure:"equipment"`
	DefaultPrice            float64            `mapstructure:"default_price"`
	ExtraEquipmentSurcharge float64            `mapstructure:"extra_equipment_surcharge"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
