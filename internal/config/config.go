package config

import (
	"fmt"
	"net"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/civic-billing/internal/domain"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// CronParser accepts the six field specs the scheduler runs with.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds all configuration for our application. Keys are flat
// environment names, so nested sections are squashed.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Storage   StorageConfig   `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Billing   BillingConfig   `mapstructure:",squash"`
	Rates     RateConfig      `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type StorageConfig struct {
	Driver string `mapstructure:"STORAGE_DRIVER"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	Host            string `mapstructure:"DATABASE_HOST"`
	Port            string `mapstructure:"DATABASE_PORT"`
	Name            string `mapstructure:"DATABASE_NAME"`
	User            string `mapstructure:"DATABASE_USER"`
	Password        string `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	ReminderCron string `mapstructure:"SCHEDULER_REMINDER_CRON"`
	Timezone     string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BillingConfig struct {
	SectionWorkers     int `mapstructure:"SECTION_WORKERS"`
	ReminderWindowDays int `mapstructure:"REMINDER_WINDOW_DAYS"`
}

// RateConfig is the default rate table. An empty unit rate or base rate
// leaves that service unconfigured.
type RateConfig struct {
	ElectricityFixedCharges string `mapstructure:"ELECTRICITY_FIXED_CHARGES"`
	ElectricityUnitRate     string `mapstructure:"ELECTRICITY_UNIT_RATE"`
	WaterFixedCharges       string `mapstructure:"WATER_FIXED_CHARGES"`
	WaterUnitRate           string `mapstructure:"WATER_UNIT_RATE"`
	GasFixedCharges         string `mapstructure:"GAS_FIXED_CHARGES"`
	GasUnitRate             string `mapstructure:"GAS_UNIT_RATE"`
	AirPollutionBaseRate    string `mapstructure:"AIR_POLLUTION_BASE_RATE"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"STORAGE_DRIVER":             StorageDriverPostgres,
	"DATABASE_URL":               "",
	"DATABASE_HOST":              "localhost",
	"DATABASE_PORT":              "5432",
	"DATABASE_NAME":              "civic_billing",
	"DATABASE_USER":              "postgres",
	"DATABASE_PASSWORD":          "",
	"DATABASE_SSLMODE":           "disable",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "5m",
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"SCHEDULER_REMINDER_CRON":    "0 0 9 * * *",
	"SCHEDULER_TIMEZONE":         "Asia/Kolkata",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"SECTION_WORKERS":            8,
	"REMINDER_WINDOW_DAYS":       3,
	"ELECTRICITY_FIXED_CHARGES":  "50",
	"ELECTRICITY_UNIT_RATE":      "5",
	"WATER_FIXED_CHARGES":        "30",
	"WATER_UNIT_RATE":            "0.02",
	"GAS_FIXED_CHARGES":          "40",
	"GAS_UNIT_RATE":              "15",
	"AIR_POLLUTION_BASE_RATE":    "200",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// A local .env is optional; variables already set in the process win.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath("./deployments")

	// Don't fail if the file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required for the postgres driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}

	if c.Billing.SectionWorkers <= 0 {
		return fmt.Errorf("SECTION_WORKERS must be greater than 0")
	}

	if c.Billing.ReminderWindowDays < 0 {
		return fmt.Errorf("REMINDER_WINDOW_DAYS must not be negative")
	}

	if _, err := c.RateTable(); err != nil {
		return err
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := CronParser.Parse(c.Scheduler.ReminderCron); err != nil {
		return fmt.Errorf("SCHEDULER_REMINDER_CRON must be a valid cron expression: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	return nil
}

// RateTable builds the default schedules. A metered service needs a unit
// rate; its fixed charges default to zero.
func (c *Config) RateTable() (domain.RateTable, error) {
	table := make(domain.RateTable)

	metered := []struct {
		service  domain.ServiceType
		fixedKey string
		fixed    string
		unitKey  string
		unitRate string
	}{
		{domain.ServiceElectricity, "ELECTRICITY_FIXED_CHARGES", c.Rates.ElectricityFixedCharges, "ELECTRICITY_UNIT_RATE", c.Rates.ElectricityUnitRate},
		{domain.ServiceWater, "WATER_FIXED_CHARGES", c.Rates.WaterFixedCharges, "WATER_UNIT_RATE", c.Rates.WaterUnitRate},
		{domain.ServiceGas, "GAS_FIXED_CHARGES", c.Rates.GasFixedCharges, "GAS_UNIT_RATE", c.Rates.GasUnitRate},
	}

	for _, m := range metered {
		if m.unitRate == "" {
			continue
		}

		unitRate, err := parseRate(m.unitKey, m.unitRate)
		if err != nil {
			return nil, err
		}

		fixed := decimal.Zero
		if m.fixed != "" {
			if fixed, err = parseRate(m.fixedKey, m.fixed); err != nil {
				return nil, err
			}
		}

		table[m.service] = domain.MeteredRate{FixedCharges: fixed, UnitRate: unitRate}
	}

	if c.Rates.AirPollutionBaseRate != "" {
		base, err := parseRate("AIR_POLLUTION_BASE_RATE", c.Rates.AirPollutionBaseRate)
		if err != nil {
			return nil, err
		}
		table[domain.ServiceAirPollution] = domain.FlatRate{BaseRate: base}
	}

	return table, nil
}

func parseRate(key, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a valid decimal: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

func (c *Config) GetConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return d
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetSchedulerLocation returns the zone reminder jobs are scheduled in.
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
