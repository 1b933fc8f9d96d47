package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify generator defaults
	if cfg.Generator.Count != 800 {
		t.Errorf("expected count 800, got %d", cfg.Generator.Count)
	}

	if cfg.Generator.Seed != 0 {
		t.Errorf("expected random seed (0), got %d", cfg.Generator.Seed)
	}

	// Verify risk and impact defaults
	if cfg.Risk.HighRiskThreshold != 70 {
		t.Errorf("expected high_risk_threshold 70, got %f", cfg.Risk.HighRiskThreshold)
	}

	if cfg.Impact.CostMultiplier != 1.2 {
		t.Errorf("expected cost_multiplier 1.2, got %f", cfg.Impact.CostMultiplier)
	}

	if cfg.Impact.SuccessRate != 0.6 {
		t.Errorf("expected success_rate 0.6, got %f", cfg.Impact.SuccessRate)
	}

	// Verify model defaults
	if cfg.Model.TestFraction != 0.2 {
		t.Errorf("expected test_fraction 0.2, got %f", cfg.Model.TestFraction)
	}

	if cfg.Model.Trees != 100 || cfg.Model.MaxDepth != 10 {
		t.Errorf("expected 100 trees of depth 10, got %d of depth %d", cfg.Model.Trees, cfg.Model.MaxDepth)
	}

	if cfg.Model.SplitSeed != 42 || cfg.Model.ForestSeed != 42 {
		t.Errorf("expected seeds 42, got split %d forest %d", cfg.Model.SplitSeed, cfg.Model.ForestSeed)
	}

	// Verify storage and output defaults
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("expected backend sqlite, got %s", cfg.Storage.Backend)
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format yaml, got %s", cfg.Output.Format)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"yaml", true},
		{"json", true},
		{"csv", false},
		{"", false},
		{"YAML", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			result := IsValidFormat(tt.format)
			if result != tt.valid {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.format, result, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name: "zero count",
			modify: func(c *Config) {
				c.Generator.Count = 0
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "threshold above scale",
			modify: func(c *Config) {
				c.Risk.HighRiskThreshold = 101
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "test fraction of one",
			modify: func(c *Config) {
				c.Model.TestFraction = 1
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "no trees",
			modify: func(c *Config) {
				c.Model.Trees = 0
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "min samples split of one",
			modify: func(c *Config) {
				c.Model.MinSamplesSplit = 1
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "success rate above one",
			modify: func(c *Config) {
				c.Impact.SuccessRate = 1.5
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "negative cost multiplier",
			modify: func(c *Config) {
				c.Impact.CostMultiplier = -1
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "unknown backend",
			modify: func(c *Config) {
				c.Storage.Backend = "mongo"
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "postgres without dsn",
			modify: func(c *Config) {
				c.Storage.Backend = BackendPostgres
			},
			wantErr: ErrMissingDataSource,
		},
		{
			name: "postgres with dsn",
			modify: func(c *Config) {
				c.Storage.Backend = BackendPostgres
				c.Storage.DSN = "postgres://localhost/pulse"
			},
			wantErr: nil,
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.Log.Level = "verbose"
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "unknown format",
			modify: func(c *Config) {
				c.Output.Format = "xml"
			},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("empty loaded uses all defaults", func(t *testing.T) {
		loaded := &Config{}
		merged := Merge(loaded, defaults)

		if merged.Generator.Count != defaults.Generator.Count {
			t.Errorf("expected count %d, got %d", defaults.Generator.Count, merged.Generator.Count)
		}

		if merged.Model != defaults.Model {
			t.Errorf("expected model %+v, got %+v", defaults.Model, merged.Model)
		}

		if merged.Storage.Backend != defaults.Storage.Backend {
			t.Errorf("expected backend %s, got %s", defaults.Storage.Backend, merged.Storage.Backend)
		}
	})

	t.Run("loaded values take precedence", func(t *testing.T) {
		loaded := &Config{
			Generator: GeneratorConfig{Seed: 7},
			Model:     ModelConfig{Trees: 25},
			Output:    OutputConfig{Format: "json"},
		}
		merged := Merge(loaded, defaults)

		if merged.Generator.Seed != 7 {
			t.Errorf("expected seed 7, got %d", merged.Generator.Seed)
		}

		if merged.Model.Trees != 25 {
			t.Errorf("expected trees 25, got %d", merged.Model.Trees)
		}

		if merged.Output.Format != "json" {
			t.Errorf("expected format json, got %s", merged.Output.Format)
		}

		// Unset values should use defaults
		if merged.Model.MaxDepth != defaults.Model.MaxDepth {
			t.Errorf("expected max depth %d, got %d", defaults.Model.MaxDepth, merged.Model.MaxDepth)
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directories: tmpDir/project/subdir
	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	configDir := filepath.Join(projectDir, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates config directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("config directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("returns existing directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}
	})
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
generator:
  count: 1200
  seed: 99
model:
  trees: 50
output:
  format: json
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Generator.Count != 1200 || cfg.Generator.Seed != 99 {
			t.Errorf("expected count 1200 seed 99, got %d seed %d", cfg.Generator.Count, cfg.Generator.Seed)
		}
		if cfg.Model.Trees != 50 {
			t.Errorf("expected trees 50, got %d", cfg.Model.Trees)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("expected format json, got %s", cfg.Output.Format)
		}

		// Check defaults were applied for missing values
		if cfg.Risk.HighRiskThreshold != 70 {
			t.Errorf("expected default threshold 70, got %f", cfg.Risk.HighRiskThreshold)
		}
		if cfg.Model.MaxDepth != 10 {
			t.Errorf("expected default max depth 10, got %d", cfg.Model.MaxDepth)
		}
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Generator.Count != defaults.Generator.Count {
			t.Errorf("expected default count, got %d", cfg.Generator.Count)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("invalid: yaml: content"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
storage:
  backend: cassandra
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format {
			t.Errorf("expected default config")
		}
	})

	t.Run("loads config from .pulse directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}

		content := `
risk:
  high_risk_threshold: 80
`
		configPath := filepath.Join(configDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		if cfg.Risk.HighRiskThreshold != 80 {
			t.Errorf("expected threshold 80, got %f", cfg.Risk.HighRiskThreshold)
		}
	})
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedPath := filepath.Join(tmpDir, ConfigDirName, ConfigFileName)
		if configPath != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, configPath)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Errorf("failed to load saved config: %v", err)
		}

		defaults := DefaultConfig()
		if *cfg != *defaults {
			t.Errorf("saved config doesn't match defaults: %+v", cfg)
		}
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		_, err := SaveDefault(tmpDir)
		if err == nil {
			t.Error("expected error when config already exists")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("PULSE_GENERATOR_COUNT", "250")
		t.Setenv("PULSE_RISK_HIGH_RISK_THRESHOLD", "65.5")
		t.Setenv("PULSE_STORAGE_BACKEND", "dolt")

		cfg := DefaultConfig()
		if err := ApplyEnv(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Generator.Count != 250 {
			t.Errorf("expected count 250, got %d", cfg.Generator.Count)
		}
		if cfg.Risk.HighRiskThreshold != 65.5 {
			t.Errorf("expected threshold 65.5, got %f", cfg.Risk.HighRiskThreshold)
		}
		if cfg.Storage.Backend != BackendDolt {
			t.Errorf("expected backend dolt, got %s", cfg.Storage.Backend)
		}

		// Untouched values keep their defaults
		if cfg.Model.Trees != 100 {
			t.Errorf("expected trees 100, got %d", cfg.Model.Trees)
		}
	})

	t.Run("malformed value is invalid config", func(t *testing.T) {
		t.Setenv("PULSE_MODEL_TREES", "many")

		err := ApplyEnv(DefaultConfig())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("overrides are validated", func(t *testing.T) {
		t.Setenv("PULSE_STORAGE_BACKEND", "postgres")

		err := ApplyEnv(DefaultConfig())
		if !errors.Is(err, ErrMissingDataSource) {
			t.Errorf("expected ErrMissingDataSource, got %v", err)
		}
	})

	t.Run("loads env files", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envFile, []byte("PULSE_MODEL_MAX_DEPTH=6\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Unsetenv("PULSE_MODEL_MAX_DEPTH") })

		cfg := DefaultConfig()
		if err := ApplyEnv(cfg, envFile, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Model.MaxDepth != 6 {
			t.Errorf("expected max depth 6, got %d", cfg.Model.MaxDepth)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	n, err := LoadEnv([]string{filepath.Join(t.TempDir(), "absent.env")})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("LoadEnv(absent) = %d, expected 0", n)
	}
}
