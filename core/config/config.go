// Package config loads orchestrator settings from the environment. A .env
// file in the working directory is honored, real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultProgressThrottle       = 8 * time.Second
	DefaultFirstProgressThreshold = 15 * time.Second
	DefaultHardTimeout            = 60 * time.Second
	DefaultMaxToolRounds          = 6
	DefaultUpdateVerbosity        = "verbose"
)

type Config struct {
	DeepgramAPIKey    string
	GroqAPIKey        string
	HiveAPIKey        string
	HiveHost          string
	OpenWeatherAPIKey string

	// ProgressThrottle is the minimum spacing between progress utterances
	// for a single query.
	ProgressThrottle time.Duration
	// FirstProgressThreshold is how long a query may run without any
	// progress report before a generic still-working notice is spoken.
	FirstProgressThreshold time.Duration
	// HardTimeout bounds how long a research query may run before it is
	// failed with a spoken fallback.
	HardTimeout time.Duration

	// MaxToolRounds bounds the routing loop when the reasoning backend
	// chains tool calls.
	MaxToolRounds int

	// UpdateVerbosity controls which progress utterances are spoken:
	// "silent", "minimal" or "verbose".
	UpdateVerbosity string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. It returns an error on values that parse but make no
// sense, like a non-positive timeout.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		HiveAPIKey:        os.Getenv("HIVE_API_KEY"),
		HiveHost:          os.Getenv("HIVE_HOST"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),

		ProgressThrottle:       DefaultProgressThrottle,
		FirstProgressThreshold: DefaultFirstProgressThreshold,
		HardTimeout:            DefaultHardTimeout,
		MaxToolRounds:          DefaultMaxToolRounds,
		UpdateVerbosity:        DefaultUpdateVerbosity,
	}

	var err error
	if cfg.ProgressThrottle, err = durationEnv("ARIA_PROGRESS_THROTTLE", cfg.ProgressThrottle); err != nil {
		return nil, err
	}
	if cfg.FirstProgressThreshold, err = durationEnv("ARIA_FIRST_PROGRESS_THRESHOLD", cfg.FirstProgressThreshold); err != nil {
		return nil, err
	}
	if cfg.HardTimeout, err = durationEnv("ARIA_HARD_TIMEOUT", cfg.HardTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxToolRounds, err = intEnv("ARIA_MAX_TOOL_ROUNDS", cfg.MaxToolRounds); err != nil {
		return nil, err
	}

	if verbosity, ok := os.LookupEnv("ARIA_UPDATE_VERBOSITY"); ok {
		switch verbosity {
		case "silent", "minimal", "verbose":
			cfg.UpdateVerbosity = verbosity
		default:
			return nil, fmt.Errorf("invalid ARIA_UPDATE_VERBOSITY %q: must be silent, minimal or verbose", verbosity)
		}
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return n, nil
}
