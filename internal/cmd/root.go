// Package cmd contains all CLI commands for pulse.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the current version of pulse
	Version = "0.1.0"

	// Global flags
	verbose       bool
	configPath    string
	forAgents     bool
	outputFormat  string
	outputDensity string
	logLevel      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "People analytics for employee turnover and engagement",
	Long: `pulse generates or imports employee rosters, stores them as snapshots and
analyses them: turnover and engagement metrics, risk lists, a turnover model
with feature importance, retention recommendations and their financial impact.

Output Format:
  All commands output YAML by default.
  Use --format json for JSON.
  Use --density to control how many table rows are shown (sparse|medium|dense).

Main capabilities:
  - Generate synthetic rosters or import them from CSV
  - Department, generation, tenure and cohort metrics
  - High-risk employee lists with recommended actions
  - Train and evaluate a turnover model
  - Retention recommendations and impact estimates
  - Export tables to CSV or XLSX
  - Serve the analytics over MCP or HTTP

Global Flags:
  --format    Output format: yaml (default) | json
  --density   Rows per table: sparse (10) | medium (100, default) | dense (all)

Examples:
  pulse init                              # Create .pulse/ with a default config
  pulse generate --count 800 --seed 42    # Generate and store a roster
  pulse metrics departments               # Department table
  pulse risk --filter department=Sales    # High-risk Sales employees
  pulse predict --limit 20                # 20 most likely leavers
  pulse export report.xlsx                # Every table as a workbook

See 'pulse <command> --help' for command-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .pulse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (yaml|json, default from config)")
	rootCmd.PersistentFlags().StringVar(&outputDensity, "density", "medium", "Output density (sparse|medium|dense)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (silent|error|warn|info|debug, default from config)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	output := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	// Collect flags
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	// Collect subcommands
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	// Extract examples from Example field if available
	if cmd.Example != "" {
		// Split by newline and filter empty lines
		lines := strings.Split(cmd.Example, "\n")
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
