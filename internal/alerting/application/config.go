package application

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Advisory lock id for the evaluation run; arbitrary but must match across
// every instance sharing the database.
const defaultLockKey = 8675309

// Config defines alert evaluation tuning. Values come from a YAML file
// pointed at by ALERTING_CONFIG, with env fallbacks for each knob.
type Config struct {
	DeltaThreshold      float64 `yaml:"delta_threshold"`
	CooldownHours       int     `yaml:"cooldown_hours"`
	EvalIntervalMinutes int     `yaml:"eval_interval_minutes"`
	LockKey             int64   `yaml:"lock_key"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		DeltaThreshold:      getenvFloatDefault("ALERT_DELTA_THRESHOLD", 0.10),
		CooldownHours:       getenvIntDefault("ALERT_COOLDOWN_HOURS", 6),
		EvalIntervalMinutes: getenvIntDefault("EVAL_INTERVAL_MINUTES", 15),
		LockKey:             int64(getenvIntDefault("EVAL_LOCK_KEY", defaultLockKey)),
	}

	if path := os.Getenv("ALERTING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DeltaThreshold < 0 || cfg.DeltaThreshold > 1 {
		return cfg, errors.New("alerting config: delta threshold out of range")
	}
	if cfg.CooldownHours < 0 {
		return cfg, errors.New("alerting config: negative cooldown")
	}
	if cfg.EvalIntervalMinutes <= 0 {
		return cfg, errors.New("alerting config: eval interval must be positive")
	}
	if cfg.LockKey == 0 {
		cfg.LockKey = defaultLockKey
	}
	return cfg, nil
}

// Cooldown returns the cooldown as a duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

// EvalInterval returns the scheduler interval as a duration.
func (c Config) EvalInterval() time.Duration {
	return time.Duration(c.EvalIntervalMinutes) * time.Minute
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
