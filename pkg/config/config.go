// Package config loads runtime settings from the environment.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultRegion        = "us-east-1"
	DefaultSchedulerCron = "*/1 * * * *"
	DefaultPort          = 4000
)

// Config is everything the service reads from its environment.
type Config struct {
	// DatabaseURL is the Postgres DSN. Empty selects the in-memory store,
	// which is only sensible together with MockMode.
	DatabaseURL string
	// Region is the fallback AWS region for workspaces without one.
	Region string
	// SchedulerCron is the sweep cadence in standard cron syntax.
	SchedulerCron string
	// Port is the HTTP listen port.
	Port int
	// MockMode swaps the live cloud client and collectors for seeded
	// in-memory fixtures.
	MockMode bool
	// OTLPEndpoint overrides OTEL_EXPORTER_OTLP_ENDPOINT when set.
	OTLPEndpoint string
}

// Load reads the environment. Every value has a default except the
// database DSN.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("AWS_DEFAULT_REGION", DefaultRegion)
	v.SetDefault("SCHEDULER_CRON", DefaultSchedulerCron)
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("MOCK_MODE", false)

	return Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		Region:        v.GetString("AWS_DEFAULT_REGION"),
		SchedulerCron: v.GetString("SCHEDULER_CRON"),
		Port:          v.GetInt("PORT"),
		MockMode:      v.GetBool("MOCK_MODE"),
		OTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}
