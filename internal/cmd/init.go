package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/config"
	"github.com/bernlabs/pulse/internal/logging"
	"github.com/bernlabs/pulse/internal/workspace"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .pulse directory, config and database",
	Long: `Initialize the .pulse directory in the current directory.

This writes a default config.yaml and creates the snapshot store and model
cache. Every config key can later be overridden with PULSE_* environment
variables or a .env file.

Examples:
  pulse init          # Initialize in current directory
  pulse init --force  # Rewrite config.yaml with defaults`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Rewrite config.yaml even if .pulse already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	pulseDir := filepath.Join(cwd, config.ConfigDirName)
	cfgPath := filepath.Join(pulseDir, config.ConfigFileName)
	relPath, _ := filepath.Rel(cwd, pulseDir)

	_, err = os.Stat(cfgPath)
	if err == nil {
		if !initForce {
			fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(cfgPath); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	if _, err := config.SaveDefault(cwd); err != nil {
		return err
	}

	// Opening the workspace creates the store schema and the model cache.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ws, err := workspace.Open(ctx, pulseDir, config.DefaultConfig(), logging.Nop())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	if err := ws.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized pulse workspace at %s\n", relPath)
	return nil
}
