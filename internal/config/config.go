package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"scala40-advisor/internal/scala40"
)

type Config struct {
	Port              int
	LogLevel          zerolog.Level
	DefaultPhase      scala40.Phase
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxCandidateMelds int
	ParallelOpening   bool
	TableIdleTimeout  time.Duration
}

// Load reads the environment (a .env file is loaded first if present) and
// fills in defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_PHASE", string(scala40.PhaseMid))
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Second)
	v.SetDefault("MAX_CANDIDATE_MELDS", scala40.DefaultMaxCandidateMelds)
	v.SetDefault("PARALLEL_OPENING", false)
	v.SetDefault("TABLE_IDLE_TIMEOUT", 2*time.Hour)

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return nil, fmt.Errorf("CONFIG_INVALID: LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:              v.GetInt("PORT"),
		LogLevel:          level,
		DefaultPhase:      scala40.ParsePhase(v.GetString("DEFAULT_PHASE")),
		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),
		MaxCandidateMelds: v.GetInt("MAX_CANDIDATE_MELDS"),
		ParallelOpening:   v.GetBool("PARALLEL_OPENING"),
		TableIdleTimeout:  v.GetDuration("TABLE_IDLE_TIMEOUT"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CONFIG_INVALID: PORT out of range: %d", cfg.Port)
	}
	if cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("CONFIG_INVALID: rate limit must be positive")
	}

	return cfg, nil
}

// OpeningOptions turns the search settings into scala40 options.
func (c *Config) OpeningOptions() []scala40.OpeningOption {
	opts := []scala40.OpeningOption{scala40.WithMaxCandidateMelds(c.MaxCandidateMelds)}
	if c.ParallelOpening {
		opts = append(opts, scala40.WithParallelSearch())
	}
	return opts
}
