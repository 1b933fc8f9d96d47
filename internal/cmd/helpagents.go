package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/mcp"
)

// helpAgentsCmd represents the help-agents command
var helpAgentsCmd = &cobra.Command{
	Use:   "help-agents",
	Short: "Output agent-optimized command reference",
	Long: `Output a concise command reference for AI agents.

Examples:
  pulse help-agents                # Markdown output (default)
  pulse help-agents --format json  # JSON output for parsing`,
	RunE: runHelpAgents,
}

func init() {
	rootCmd.AddCommand(helpAgentsCmd)
}

func runHelpAgents(cmd *cobra.Command, args []string) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(agentReference())
	}
	fmt.Fprint(cmd.OutOrStdout(), agentReferenceMarkdown)
	return nil
}

const agentReferenceMarkdown = `# pulse Command Reference for AI Agents

## Quick Start Workflow

` + "```bash" + `
# 1. Make sure there is a roster
pulse snapshots || pulse generate --seed 42

# 2. Get the big picture
pulse report

# 3. Drill down
pulse metrics departments
pulse risk -f department=Sales

# 4. Model and actions
pulse predict --limit 20
pulse recommend
pulse impact
` + "```" + `

---

## Commands

| Need | Command |
|------|---------|
| Create workspace | ` + "`pulse init`" + ` |
| Synthetic roster | ` + "`pulse generate --count 800 --seed 42`" + ` |
| Real roster | ` + "`pulse import employees.csv`" + ` |
| Executive view | ` + "`pulse report`" + ` |
| One table | ` + "`pulse metrics <table>`" + ` |
| Who is at risk | ` + "`pulse risk --threshold 70`" + ` |
| Model quality | ` + "`pulse train`" + ` |
| Likely leavers | ` + "`pulse predict --limit 20`" + ` |
| What to do | ` + "`pulse recommend`" + ` |
| What it costs | ` + "`pulse impact`" + ` |
| Spreadsheet | ` + "`pulse export report.xlsx`" + ` |
| Workspace health | ` + "`pulse doctor`" + ` |
| Tool gateway | ` + "`pulse call <tool> '<json>'`" + ` |
| MCP / HTTP server | ` + "`pulse serve --mcp`" + ` / ` + "`pulse serve --http`" + ` |

Filters (` + "`-f field=value`" + `, repeatable) accept: id, department, level, generation,
status, separation_type, trend. Misspelled fields get a "did you mean" hint.

---

## Global Flags

` + "```" + `
--format yaml|json                Output format (default: yaml)
--density sparse|medium|dense     Rows per table: 10 | 100 (default) | all
--config <path>                   Config file (default: .pulse/config.yaml)
--log-level <level>               silent|error|warn|info|debug
-v, --verbose                     Debug logging
` + "```" + `
`

// agentRef is the JSON form of the agent reference.
type agentRef struct {
	Version     string            `json:"version"`
	Workflow    []string          `json:"workflow"`
	Commands    map[string]string `json:"commands"`
	MCPTools    []string          `json:"mcp_tools"`
	Tables      []string          `json:"tables"`
	GlobalFlags map[string]string `json:"global_flags"`
}

func agentReference() agentRef {
	return agentRef{
		Version: Version,
		Workflow: []string{
			"pulse generate --seed 42",
			"pulse report",
			"pulse risk",
			"pulse predict --limit 20",
			"pulse recommend",
			"pulse impact",
		},
		Commands: map[string]string{
			"init":      "Create .pulse with a default config",
			"generate":  "Generate and store a synthetic roster",
			"import":    "Import a roster from CSV",
			"snapshots": "List or delete stored rosters",
			"metrics":   "Show one metric table",
			"report":    "Executive insights",
			"risk":      "Active employees above the risk threshold",
			"train":     "Train the turnover model and report its quality",
			"predict":   "Separation probability per active employee",
			"recommend": "Retention actions per department",
			"impact":    "Cost of losing the high-risk population",
			"export":    "Write tables to XLSX or CSV",
			"doctor":    "Workspace health checks",
			"call":      "Call an MCP tool from the command line",
			"serve":     "MCP (--mcp) or HTTP (--http) server",
		},
		MCPTools: mcp.AllTools,
		Tables:   mcp.MetricTables,
		GlobalFlags: map[string]string{
			"--format":    "yaml|json (default: yaml)",
			"--density":   "sparse|medium|dense (default: medium)",
			"--config":    "config file path",
			"--log-level": "silent|error|warn|info|debug",
			"--verbose":   "debug logging",
		},
	}
}
