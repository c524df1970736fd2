package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AlertsFilterServer = "server"
	AlertsFilterLocal  = "local"

	CatalogBackendHTTP = "http"
	CatalogBackendEtcd = "etcd"
)

// DashboardConfig holds the view model settings.
type DashboardConfig struct {
	DefaultPageSize  int           `mapstructure:"default_page_size"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	StrictInvariants bool          `mapstructure:"strict_invariants"`
	AlertsFilterMode string        `mapstructure:"alerts_filter_mode"`
	MetricsTimeRange string        `mapstructure:"metrics_time_range"`
}

// LocalAlerts reports whether the alerts-only filter is applied to the
// fetched page instead of being sent to the container API.
func (c *DashboardConfig) LocalAlerts() bool {
	return strings.EqualFold(c.AlertsFilterMode, AlertsFilterLocal)
}

// APIConfig holds the backend endpoints and the outbound call policy.
type APIConfig struct {
	ContainersURL    string        `mapstructure:"containers_url"`
	PerformanceURL   string        `mapstructure:"performance_url"`
	FiltersURL       string        `mapstructure:"filters_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryAttempts    uint          `mapstructure:"retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	BreakerHalfOpen  uint32        `mapstructure:"breaker_half_open_requests"`
	BreakerInterval  time.Duration `mapstructure:"breaker_interval"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
}

// CatalogConfig selects where filter options come from.
type CatalogConfig struct {
	Backend       string        `mapstructure:"backend"`
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	EtcdPrefix    string        `mapstructure:"etcd_prefix"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

// ServerConfig holds the JSON view surface settings.
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// Config is the top-level configuration struct.
type Config struct {
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	API       APIConfig       `mapstructure:"api"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"log"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dashboard.default_page_size", 25)
	v.SetDefault("dashboard.refresh_interval", 30*time.Second)
	v.SetDefault("dashboard.strict_invariants", false)
	v.SetDefault("dashboard.alerts_filter_mode", AlertsFilterServer)
	v.SetDefault("dashboard.metrics_time_range", "")
	v.SetDefault("api.containers_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.performance_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.filters_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.retry_attempts", 3)
	v.SetDefault("api.retry_delay", 200*time.Millisecond)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_timeout", 30*time.Second)
	v.SetDefault("api.breaker_half_open_requests", 1)
	v.SetDefault("api.breaker_interval", 60*time.Second)
	v.SetDefault("api.max_response_bytes", 8<<20)
	v.SetDefault("catalog.backend", CatalogBackendHTTP)
	v.SetDefault("catalog.etcd_endpoints", []string{"localhost:2379"})
	v.SetDefault("catalog.etcd_prefix", "/fleet/filters")
	v.SetDefault("catalog.dial_timeout", 2*time.Second)
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.log_level", "INFO")
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
// An empty configFile searches the working directory for config.yaml.
func InitConfig(v *viper.Viper, configFile string) error {
	SetDefaults(v)

	// Specify the config file details.
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config") // Looks for config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath(".") // current directory
	}

	// Enable automatic environment variable binding.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read the config file if available.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Dashboard.AlertsFilterMode) {
	case AlertsFilterServer, AlertsFilterLocal:
	default:
		return fmt.Errorf("dashboard.alerts_filter_mode must be %q or %q, got %q", AlertsFilterServer, AlertsFilterLocal, c.Dashboard.AlertsFilterMode)
	}
	switch strings.ToLower(c.Catalog.Backend) {
	case CatalogBackendHTTP:
	case CatalogBackendEtcd:
		if len(c.Catalog.EtcdEndpoints) == 0 {
			return fmt.Errorf("catalog.etcd_endpoints is required for the etcd backend")
		}
	default:
		return fmt.Errorf("catalog.backend must be %q or %q, got %q", CatalogBackendHTTP, CatalogBackendEtcd, c.Catalog.Backend)
	}
	if c.Dashboard.RefreshInterval < 0 {
		return fmt.Errorf("dashboard.refresh_interval must not be negative")
	}
	return nil
}
