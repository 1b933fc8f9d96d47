package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the pulse configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the pulse workspace directory
const ConfigDirName = ".pulse"

// EnvPrefix prefixes every environment override, e.g. PULSE_RISK_HIGH_RISK_THRESHOLD.
const EnvPrefix = "PULSE_"

// Config holds all pulse configuration
type Config struct {
	Generator GeneratorConfig `yaml:"generator" envPrefix:"GENERATOR_"`
	Risk      RiskConfig      `yaml:"risk" envPrefix:"RISK_"`
	Model     ModelConfig     `yaml:"model" envPrefix:"MODEL_"`
	Impact    ImpactConfig    `yaml:"impact" envPrefix:"IMPACT_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Output    OutputConfig    `yaml:"output" envPrefix:"OUTPUT_"`
	Serve     ServeConfig     `yaml:"serve" envPrefix:"SERVE_"`
}

// GeneratorConfig holds configuration for synthetic roster generation.
// A zero seed picks a fresh random seed per run.
type GeneratorConfig struct {
	Count int    `yaml:"count" env:"COUNT"`
	Seed  uint64 `yaml:"seed" env:"SEED"`
}

// RiskConfig holds the high-risk cut-off on the 0-100 risk scale
type RiskConfig struct {
	HighRiskThreshold float64 `yaml:"high_risk_threshold" env:"HIGH_RISK_THRESHOLD"`
}

// ModelConfig holds turnover model training parameters
type ModelConfig struct {
	TestFraction    float64 `yaml:"test_fraction" env:"TEST_FRACTION"`
	SplitSeed       uint64  `yaml:"split_seed" env:"SPLIT_SEED"`
	Trees           int     `yaml:"trees" env:"TREES"`
	MaxDepth        int     `yaml:"max_depth" env:"MAX_DEPTH"`
	MinSamplesSplit int     `yaml:"min_samples_split" env:"MIN_SAMPLES_SPLIT"`
	ForestSeed      uint64  `yaml:"forest_seed" env:"FOREST_SEED"`
}

// ImpactConfig holds the cost assumptions of the retention impact estimate
type ImpactConfig struct {
	CostMultiplier float64 `yaml:"cost_multiplier" env:"COST_MULTIPLIER"`
	SuccessRate    float64 `yaml:"success_rate" env:"SUCCESS_RATE"`
	Currency       string  `yaml:"currency" env:"CURRENCY"`
}

// StorageConfig holds the snapshot store backend.
// An empty DSN for sqlite or dolt resolves to a path inside .pulse.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	DSN     string `yaml:"dsn" env:"DSN"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	Format string `yaml:"format" env:"FORMAT"`
}

// ServeConfig holds the HTTP API listen address
type ServeConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrMissingDataSource is returned when a server backend has no DSN
var ErrMissingDataSource = errors.New("missing data source")

// Load reads config from .pulse/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .pulse directory by walking up from startDir.
// Returns the path to the .pulse directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .pulse directory if it doesn't exist.
// Returns the path to the .pulse directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Generator.Count <= 0 {
		return fmt.Errorf("%w: generator.count must be positive, got %d",
			ErrInvalidConfig, cfg.Generator.Count)
	}

	if cfg.Risk.HighRiskThreshold < 0 || cfg.Risk.HighRiskThreshold > 100 {
		return fmt.Errorf("%w: high_risk_threshold must be between 0 and 100, got %f",
			ErrInvalidConfig, cfg.Risk.HighRiskThreshold)
	}

	// Both sides of the split need rows
	if cfg.Model.TestFraction <= 0 || cfg.Model.TestFraction >= 1 {
		return fmt.Errorf("%w: test_fraction must be between 0 and 1 (exclusive), got %f",
			ErrInvalidConfig, cfg.Model.TestFraction)
	}

	if cfg.Model.Trees <= 0 {
		return fmt.Errorf("%w: trees must be positive, got %d",
			ErrInvalidConfig, cfg.Model.Trees)
	}

	if cfg.Model.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive, got %d",
			ErrInvalidConfig, cfg.Model.MaxDepth)
	}

	if cfg.Model.MinSamplesSplit < 2 {
		return fmt.Errorf("%w: min_samples_split must be at least 2, got %d",
			ErrInvalidConfig, cfg.Model.MinSamplesSplit)
	}

	if cfg.Impact.CostMultiplier <= 0 {
		return fmt.Errorf("%w: cost_multiplier must be positive, got %f",
			ErrInvalidConfig, cfg.Impact.CostMultiplier)
	}

	if cfg.Impact.SuccessRate <= 0 || cfg.Impact.SuccessRate > 1 {
		return fmt.Errorf("%w: success_rate must be in (0, 1], got %f",
			ErrInvalidConfig, cfg.Impact.SuccessRate)
	}

	if !slices.Contains(ValidBackends, cfg.Storage.Backend) {
		return fmt.Errorf("%w: storage.backend must be one of %v, got %q",
			ErrInvalidConfig, ValidBackends, cfg.Storage.Backend)
	}

	if cfg.Storage.Backend == BackendPostgres && cfg.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for the %s backend",
			ErrMissingDataSource, BackendPostgres)
	}

	if !slices.Contains(ValidLogLevels, cfg.Log.Level) {
		return fmt.Errorf("%w: log.level must be one of %v, got %q",
			ErrInvalidConfig, ValidLogLevels, cfg.Log.Level)
	}

	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	return nil
}

// SaveDefault writes the default configuration to .pulse/config.yaml in workDir.
// Creates the .pulse directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# pulse configuration\n# Every key can be overridden with a PULSE_<SECTION>_<KEY> environment variable\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
