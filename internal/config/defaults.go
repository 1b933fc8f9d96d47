package config

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendDolt     = "dolt"
	BackendPostgres = "postgres"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Count: 800,
		},
		Risk: RiskConfig{
			HighRiskThreshold: 70,
		},
		Model: ModelConfig{
			TestFraction:    0.2,
			SplitSeed:       42,
			Trees:           100,
			MaxDepth:        10,
			MinSamplesSplit: 2,
			ForestSeed:      42,
		},
		Impact: ImpactConfig{
			CostMultiplier: 1.2,
			SuccessRate:    0.6,
			Currency:       "BRL",
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Output: OutputConfig{
			Format: "yaml",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Generator = mergeGeneratorConfig(loaded.Generator, defaults.Generator)
	result.Risk = mergeRiskConfig(loaded.Risk, defaults.Risk)
	result.Model = mergeModelConfig(loaded.Model, defaults.Model)
	result.Impact = mergeImpactConfig(loaded.Impact, defaults.Impact)
	result.Storage = mergeStorageConfig(loaded.Storage, defaults.Storage)
	result.Log.Level = firstNonEmpty(loaded.Log.Level, defaults.Log.Level)
	result.Output.Format = firstNonEmpty(loaded.Output.Format, defaults.Output.Format)
	result.Serve.Addr = firstNonEmpty(loaded.Serve.Addr, defaults.Serve.Addr)

	return result
}

func mergeGeneratorConfig(loaded, defaults GeneratorConfig) GeneratorConfig {
	result := GeneratorConfig{}

	// Count: use loaded if non-zero
	if loaded.Count != 0 {
		result.Count = loaded.Count
	} else {
		result.Count = defaults.Count
	}

	// Seed: zero means random, so a zero loaded value still falls back
	if loaded.Seed != 0 {
		result.Seed = loaded.Seed
	} else {
		result.Seed = defaults.Seed
	}

	return result
}

func mergeRiskConfig(loaded, defaults RiskConfig) RiskConfig {
	result := RiskConfig{}

	// HighRiskThreshold: use loaded if non-zero
	if loaded.HighRiskThreshold != 0 {
		result.HighRiskThreshold = loaded.HighRiskThreshold
	} else {
		result.HighRiskThreshold = defaults.HighRiskThreshold
	}

	return result
}

func mergeModelConfig(loaded, defaults ModelConfig) ModelConfig {
	result := defaults

	if loaded.TestFraction != 0 {
		result.TestFraction = loaded.TestFraction
	}
	if loaded.SplitSeed != 0 {
		result.SplitSeed = loaded.SplitSeed
	}
	if loaded.Trees != 0 {
		result.Trees = loaded.Trees
	}
	if loaded.MaxDepth != 0 {
		result.MaxDepth = loaded.MaxDepth
	}
	if loaded.MinSamplesSplit != 0 {
		result.MinSamplesSplit = loaded.MinSamplesSplit
	}
	if loaded.ForestSeed != 0 {
		result.ForestSeed = loaded.ForestSeed
	}

	return result
}

func mergeImpactConfig(loaded, defaults ImpactConfig) ImpactConfig {
	result := ImpactConfig{}

	// CostMultiplier: use loaded if non-zero
	if loaded.CostMultiplier != 0 {
		result.CostMultiplier = loaded.CostMultiplier
	} else {
		result.CostMultiplier = defaults.CostMultiplier
	}

	// SuccessRate: use loaded if non-zero
	if loaded.SuccessRate != 0 {
		result.SuccessRate = loaded.SuccessRate
	} else {
		result.SuccessRate = defaults.SuccessRate
	}

	result.Currency = firstNonEmpty(loaded.Currency, defaults.Currency)

	return result
}

func mergeStorageConfig(loaded, defaults StorageConfig) StorageConfig {
	result := StorageConfig{}

	// Backend: use loaded if non-empty
	if loaded.Backend != "" {
		result.Backend = loaded.Backend
	} else {
		result.Backend = defaults.Backend
	}

	// DSN has no default; the store resolves a workspace path
	result.DSN = loaded.DSN

	return result
}

func firstNonEmpty(loaded, fallback string) string {
	if loaded != "" {
		return loaded
	}
	return fallback
}

// ValidBackends lists the supported storage backends
var ValidBackends = []string{BackendSQLite, BackendDolt, BackendPostgres}

// ValidLogLevels lists the accepted log levels, quietest first
var ValidLogLevels = []string{"silent", "error", "warn", "info", "debug"}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"yaml", "json"}

// IsValidFormat checks if the given output format is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
