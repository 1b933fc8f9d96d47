package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bernlabs/pulse/internal/mcp"
	"github.com/bernlabs/pulse/internal/workspace"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call an MCP tool from the command line",
	Long: `Call any pulse MCP tool with structured JSON input/output.

Tools accept JSON arguments and return JSON results, exactly as an agent
connected with 'pulse serve --mcp' would see them.

Modes:
  pulse call --list                          List all tools and parameters
  pulse call <tool> '{"key":"value"}'        Call a tool with JSON args
  pulse call --pipe                          Read JSON lines from stdin

Tool names accept shorthand: "metrics" is equivalent to "pulse_metrics".

Examples:
  pulse call --list
  pulse call metrics '{"table":"departments"}'
  pulse call high_risk '{"threshold":60,"filter":"department=Sales"}'
  pulse call predict '{"limit":10}'
  pulse call impact '{"success_rate":0.5}'
  echo '{"tool":"pulse_model","args":{}}' | pulse call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return runCallList()
	}
	if callPipe {
		return runCallPipe(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("tool name required (run 'pulse call --list' to see available tools)")
	}
	return runCallSingle(cmd, args)
}

func runCallList() error {
	schemas := mcp.Schemas()

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "jsonl":
		enc := json.NewEncoder(os.Stdout)
		for _, s := range schemas {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default: // yaml
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(schemas)
	}
}

// toolServer opens the workspace and an MCP server over it with every tool.
func toolServer(cmd *cobra.Command) (*mcp.Server, *workspace.Workspace, error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return nil, nil, err
	}
	srv, err := mcp.New(ws, mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("create server: %w", err)
	}
	return srv, ws, nil
}

func runCallSingle(cmd *cobra.Command, args []string) error {
	toolName := normalizeToolName(args[0])

	// Parse JSON args
	var toolArgs map[string]any
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid JSON args: %w", err)
		}
	} else {
		toolArgs = make(map[string]any)
	}

	srv, ws, err := toolServer(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	result, err := srv.CallTool(cmd.Context(), toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runCallPipe(cmd *cobra.Command) error {
	srv, ws, err := toolServer(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	// Allow larger lines (1MB)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}

		toolName := normalizeToolName(req.Tool)
		if req.Args == nil {
			req.Args = make(map[string]any)
		}

		result, err := srv.CallTool(cmd.Context(), toolName, req.Args)
		if err != nil {
			enc.Encode(pipeResponse{Error: err.Error()})
			continue
		}

		// Try to marshal result as raw JSON; if it's already JSON, use it directly
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(result), &raw); err != nil {
			// Not valid JSON, wrap as string
			b, _ := json.Marshal(result)
			raw = b
		}
		enc.Encode(pipeResponse{Result: raw})
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "metrics" -> "pulse_metrics", "high-risk" -> "pulse_high_risk"
func normalizeToolName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
	if !strings.HasPrefix(name, "pulse_") {
		return "pulse_" + name
	}
	return name
}
