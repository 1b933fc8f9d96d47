package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded, when present, before environment overrides apply.
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnv loads the env files that exist into the process environment.
// Variables already set are left untouched. Returns how many files were loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}

	if len(existing) == 0 {
		return 0, nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("loading env files: %w", err)
	}
	return len(existing), nil
}

// ApplyEnv overrides cfg with PULSE_* environment variables after loading
// envFiles, then validates the result. Unset variables keep the file value.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return Validate(cfg)
}
