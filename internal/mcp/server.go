// Package mcp provides an MCP (Model Context Protocol) server for pulse.
// This allows AI agents to query roster analytics through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/workspace"
)

// Server wraps the MCP server with pulse-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	ws           *workspace.Workspace
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// AllTools lists all available tools
var AllTools = []string{
	"pulse_snapshots", "pulse_metrics", "pulse_high_risk", "pulse_predict",
	"pulse_model", "pulse_recommend", "pulse_impact",
}

// DefaultTools is the default set of tools to expose
var DefaultTools = AllTools

// New creates a new MCP server over an open workspace. The caller keeps
// ownership of ws.
func New(ws *workspace.Workspace, cfg Config) (*Server, error) {
	mcpServer := server.NewMCPServer(
		"pulse",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		ws:           ws,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	schema, ok := toolSchemaRegistry[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	opts := []mcp.ToolOption{mcp.WithDescription(schema.Description)}
	for _, p := range schema.Parameters {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	s.mcpServer.AddTool(mcp.NewTool(name, opts...), s.handler(name))
	return nil
}

// handler adapts CallTool to the mcp-go handler signature. Tool failures
// are reported as error results, not protocol errors.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			s.ws.Log.WithField("idle", elapsed.Round(time.Second)).Info("mcp server timed out")
			s.ws.Close()
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools in AllTools order
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for _, t := range AllTools {
		if s.tools[t] {
			tools = append(tools, t)
		}
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Required    bool     `json:"required" yaml:"required"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

var (
	snapshotParam  = ParameterSchema{Name: "snapshot", Type: "string", Description: "Snapshot id (default: newest)"}
	filterParam    = ParameterSchema{Name: "filter", Type: "string", Description: "Comma-separated field=value filters, e.g. department=Sales,level=Senior"}
	densityParam   = ParameterSchema{Name: "density", Type: "string", Description: "Rows returned: sparse (10), medium (100, default), dense (all)", Enum: []string{"sparse", "medium", "dense"}}
	thresholdParam = ParameterSchema{Name: "threshold", Type: "number", Description: "High-risk cut-off on the 0-100 risk scale (default from config)"}
)

// MetricTables lists the tables pulse_metrics can return.
var MetricTables = []string{
	"summary", "insights", "departments", "generations", "engagement", "turnover",
	"tenure", "high_risk", "risk_matrix", "cohorts", "correlation", "employees",
}

// toolSchemaRegistry holds the schema definitions for all tools.
// registerTool builds the MCP tool definitions from it.
var toolSchemaRegistry = map[string]ToolSchema{
	"pulse_snapshots": {
		Name:        "pulse_snapshots",
		Description: "List stored roster snapshots, newest first.",
	},
	"pulse_metrics": {
		Name:        "pulse_metrics",
		Description: "Descriptive people metrics for a roster: department and generation tables, turnover, engagement, tenure, cohorts, correlations and the executive summary.",
		Parameters: []ParameterSchema{
			{Name: "table", Type: "string", Description: "Table to return", Required: true, Enum: MetricTables},
			snapshotParam, filterParam, densityParam, thresholdParam,
		},
	},
	"pulse_high_risk": {
		Name:        "pulse_high_risk",
		Description: "Active employees whose risk score exceeds the threshold, highest risk first, with risk level and recommended action.",
		Parameters:  []ParameterSchema{thresholdParam, snapshotParam, filterParam, densityParam},
	},
	"pulse_predict": {
		Name:        "pulse_predict",
		Description: "Predicted separation probability for active employees from the turnover model trained on the whole snapshot.",
		Parameters: []ParameterSchema{
			snapshotParam, filterParam, densityParam,
			{Name: "limit", Type: "number", Description: "Return only the N most likely leavers"},
		},
	},
	"pulse_model": {
		Name:        "pulse_model",
		Description: "Held-out evaluation (AUC, classification report) and feature importance of the turnover model.",
		Parameters:  []ParameterSchema{snapshotParam},
	},
	"pulse_recommend": {
		Name:        "pulse_recommend",
		Description: "Retention actions per department for the high-risk population.",
		Parameters:  []ParameterSchema{thresholdParam, snapshotParam, filterParam},
	},
	"pulse_impact": {
		Name:        "pulse_impact",
		Description: "Estimated cost of losing the high-risk population and the savings retention interventions could bring.",
		Parameters: []ParameterSchema{
			thresholdParam, snapshotParam, filterParam,
			{Name: "cost_multiplier", Type: "number", Description: "Turnover cost as a multiple of mean salary (default from config)"},
			{Name: "success_rate", Type: "number", Description: "Share of interventions that retain the employee, 0-1 (default from config)"},
		},
	},
}

// Schemas returns the schemas of every tool in AllTools order. It needs no
// workspace.
func Schemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(AllTools))
	for _, name := range AllTools {
		schemas = append(schemas, toolSchemaRegistry[name])
	}
	return schemas
}

// GetToolSchemas returns schemas for all registered tools in AllTools order.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		schemas = append(schemas, toolSchemaRegistry[name])
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'pulse call --list' to see available tools)", name)
	}
	s.updateActivity()

	q := query{
		snapshot:  stringArg(args, "snapshot"),
		filters:   splitFilters(stringArg(args, "filter")),
		threshold: numberArg(args, "threshold", s.ws.Threshold()),
		density:   output.DefaultDensity,
	}
	if d := stringArg(args, "density"); d != "" {
		density, err := output.ParseDensity(d)
		if err != nil {
			return "", err
		}
		q.density = density
	}

	switch name {
	case "pulse_snapshots":
		return s.executeSnapshots(ctx)

	case "pulse_metrics":
		table := stringArg(args, "table")
		if table == "" {
			return "", fmt.Errorf("table parameter is required")
		}
		return s.executeMetrics(ctx, table, q)

	case "pulse_high_risk":
		return s.executeHighRisk(ctx, q)

	case "pulse_predict":
		limit := int(numberArg(args, "limit", 0))
		return s.executePredict(ctx, q, limit)

	case "pulse_model":
		return s.executeModel(ctx, q)

	case "pulse_recommend":
		return s.executeRecommend(ctx, q)

	case "pulse_impact":
		cfg := workspace.ImpactConfig(s.ws.Config)
		cfg.Threshold = q.threshold
		cfg.CostMultiplier = numberArg(args, "cost_multiplier", cfg.CostMultiplier)
		cfg.SuccessRate = numberArg(args, "success_rate", cfg.SuccessRate)
		return s.executeImpact(ctx, q, cfg)

	default:
		return "", fmt.Errorf("tool %s has no handler", name)
	}
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

func numberArg(args map[string]any, name string, def float64) float64 {
	if v, ok := args[name].(float64); ok {
		return v
	}
	return def
}

func splitFilters(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
