package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded once at boot from an
// optional yaml file plus SEEKER_* environment overrides.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Research  ResearchConfig  `mapstructure:"research"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Search    SearchConfig    `mapstructure:"search"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type ResearchConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	MaxSubQueries int           `mapstructure:"max_sub_queries"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	RunDeadline   time.Duration `mapstructure:"run_deadline"`
}

type ReasoningConfig struct {
	Model string `mapstructure:"model"`
}

type SearchConfig struct {
	// Provider selects the search backend: tavily or brave.
	Provider string `mapstructure:"provider"`
	Depth    string `mapstructure:"depth"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type AuthConfig struct {
	SigningKey  string        `mapstructure:"signing_key"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from the given yaml file (optional) with
// environment overrides, e.g. SEEKER_TEMPORAL_HOST_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SEEKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "seeker-research")

	v.SetDefault("research.max_iterations", 2)
	v.SetDefault("research.max_sub_queries", 3)
	v.SetDefault("research.search_timeout", "10s")
	v.SetDefault("research.run_deadline", "25s")

	v.SetDefault("reasoning.model", "gemini-1.5-flash")

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.depth", "basic")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "seeker")
	v.SetDefault("database.database", "seeker")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("auth.token_expiry", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Search.Provider) {
	case "tavily", "brave":
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	if c.Research.MaxIterations <= 0 {
		return fmt.Errorf("research.max_iterations must be positive")
	}
	if c.Research.MaxSubQueries <= 0 {
		return fmt.Errorf("research.max_sub_queries must be positive")
	}
	return nil
}
