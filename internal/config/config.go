package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the daemon configuration.
type Config struct {
	// ConfigPath holds semicolon-separated directories to watch,
	// e.g. "/etc/pgbouncer;/etc/userlist".
	ConfigPath string `mapstructure:"config_path"`

	Connection ConnectionConfig `mapstructure:"connection"`

	// ReloadTimeout is the delay, in seconds, between a config change
	// event and the RELOAD issued to PgBouncer.
	ReloadTimeout int `mapstructure:"reload_timeout"`

	// MetricsAddr is the listen address for /metrics and health probes.
	// Empty disables the listener.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Verbose counts -v flags (0 = error .. 3 = debug).
	Verbose int `mapstructure:"verbose"`
	// JSONLog switches log output to JSON.
	JSONLog bool `mapstructure:"json_log"`
	// LogFile, when set, sends logs to a rotating file instead of stderr.
	LogFile string `mapstructure:"log_file"`
}

// ConnectionConfig holds PgBouncer admin console connection parameters.
type ConnectionConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// WatchPaths splits ConfigPath into individual directories, dropping
// empty segments.
func (c *Config) WatchPaths() []string {
	var paths []string
	for _, p := range strings.Split(c.ConfigPath, ";") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// ReloadDelay returns the reload timeout as a duration.
func (c *Config) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadTimeout) * time.Second
}

// Load reads configuration from an optional YAML file and the legacy
// environment variables. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration values.
func Validate(cfg *Config) error {
	if len(cfg.WatchPaths()) == 0 {
		return fmt.Errorf("config_path cannot be empty")
	}
	if cfg.Connection.Host == "" {
		return fmt.Errorf("connection host cannot be empty")
	}
	if cfg.Connection.Port < 1 || cfg.Connection.Port > 65535 {
		return fmt.Errorf("connection port must be between 1 and 65535, got %d", cfg.Connection.Port)
	}
	if cfg.Connection.User == "" {
		return fmt.Errorf("connection user cannot be empty")
	}
	if cfg.Connection.Password == "" {
		return fmt.Errorf("connection password cannot be empty")
	}
	if cfg.Connection.Database == "" {
		return fmt.Errorf("connection database cannot be empty")
	}
	if cfg.ReloadTimeout < 0 {
		return fmt.Errorf("reload_timeout must be >= 0, got %d", cfg.ReloadTimeout)
	}
	return nil
}

// applyDefaults sets default configuration values.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("connection.port", 6432)
	v.SetDefault("connection.user", "pgbouncer")
	v.SetDefault("connection.database", "pgbouncer")
	v.SetDefault("reload_timeout", 10)
	v.SetDefault("metrics_addr", ":9127")
	v.SetDefault("verbose", 0)
	v.SetDefault("json_log", false)
}

// bindEnv wires the environment variable names the daemon has always used.
func bindEnv(v *viper.Viper) {
	v.BindEnv("config_path", "CONFIG_PATH")
	v.BindEnv("connection.host", "PGBOUNCER_HOST")
	v.BindEnv("connection.port", "PGBOUNCER_PORT")
	v.BindEnv("connection.user", "PGBOUNCER_USER")
	v.BindEnv("connection.password", "PGBOUNCER_PASSWORD")
	v.BindEnv("connection.database", "PGBOUNCER_DATABASE")
	v.BindEnv("reload_timeout", "PGBOUNCER_RELOAD_TIMEOUT")
	v.BindEnv("metrics_addr", "METRICS_ADDR")
	v.BindEnv("verbose", "VERBOSE")
	v.BindEnv("json_log", "LOG_JSON")
	v.BindEnv("log_file", "LOG_FILE")
}
