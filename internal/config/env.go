package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable read by ApplyEnvOverrides.
const EnvPrefix = "COUNTDOWN_"

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Settings. Unset variables leave the field
// untouched. Returns an error if parsing fails.
//
// Environment variables supported:
// - COUNTDOWN_STATUS_URL (string)
// - COUNTDOWN_POLL_INTERVAL, COUNTDOWN_EMPTY_BODY_INTERVAL, COUNTDOWN_HTTP_ERROR_INTERVAL (duration, e.g. "3m")
// - COUNTDOWN_REQUEST_TIMEOUT (duration)
// - COUNTDOWN_BACKOFF_INITIAL, COUNTDOWN_BACKOFF_CEILING (duration)
// - COUNTDOWN_LOG_LEVEL, COUNTDOWN_LOG_FORMAT, COUNTDOWN_LOG_FILE (string)
// - COUNTDOWN_METRICS_ENABLED (bool), COUNTDOWN_METRICS_PORT (int)
func ApplyEnvOverrides(s *Settings) error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from a dotenv file into the process environment.
// A missing file is not an error; variables already set are not overwritten.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
