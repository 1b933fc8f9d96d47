package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/config"
	"github.com/bernlabs/pulse/internal/logging"
	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/workspace"
)

// Shared utility functions for command implementations

var errNotInitialized = errors.New("pulse not initialized: run 'pulse init' first")

// loadConfig reads the config named by --config, or the nearest
// .pulse/config.yaml, applies PULSE_* overrides and returns it together with
// the workspace directory it belongs to.
func loadConfig() (*config.Config, string, error) {
	var (
		cfg *config.Config
		dir string
		err error
	)
	if configPath != "" {
		dir = filepath.Dir(configPath)
		cfg, err = config.LoadFromPath(configPath)
	} else {
		dir, err = config.FindConfigDir(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, "", errNotInitialized
		}
		if err != nil {
			return nil, "", err
		}
		cfg, err = config.LoadFromPath(filepath.Join(dir, config.ConfigFileName))
	}
	if err != nil {
		return nil, "", err
	}

	if err := config.ApplyEnv(cfg, config.DefaultEnvFiles...); err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

// newLogger builds the stderr logger from --verbose, --log-level and the config.
func newLogger(cfg *config.Config) *logrus.Logger {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	return logging.Console(level)
}

// openWorkspace opens the workspace of the current directory. The caller
// must Close it.
func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	cfg, dir, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workspace.Open(cmd.Context(), dir, cfg, newLogger(cfg))
}

// writeOutput renders v in the selected format and density on the
// command's stdout.
func writeOutput(cmd *cobra.Command, ws *workspace.Workspace, v any) error {
	name := outputFormat
	if name == "" {
		name = ws.Config.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	density, err := output.ParseDensity(outputDensity)
	if err != nil {
		return err
	}

	formatter, err := output.GetFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(cmd.OutOrStdout(), v, density)
}

// resolveThreshold returns the --threshold flag when set, else the configured
// high-risk cut-off.
func resolveThreshold(cmd *cobra.Command, ws *workspace.Workspace, flag float64) (float64, error) {
	if !cmd.Flags().Changed("threshold") {
		return ws.Threshold(), nil
	}
	if flag < 0 || flag > 100 {
		return 0, fmt.Errorf("threshold must be between 0 and 100, got %g", flag)
	}
	return flag, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
