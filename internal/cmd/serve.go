package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/api"
	"github.com/bernlabs/pulse/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics to AI agents (MCP) or over HTTP",
	Long: `Start an MCP (Model Context Protocol) server for AI agent integration, or
an HTTP JSON API with Prometheus metrics.

Both keep the workspace open, so trained models stay in memory between
queries instead of being restored for every CLI call.

MCP tools:
  pulse_snapshots   Stored roster snapshots
  pulse_metrics     Metric tables (departments, turnover, cohorts...)
  pulse_high_risk   Active employees above the risk threshold
  pulse_predict     Separation probability per active employee
  pulse_model       Model evaluation and feature importance
  pulse_recommend   Retention actions per department
  pulse_impact      Cost of losing the high-risk population

HTTP endpoints (under /api/v1):
  GET /snapshots, /snapshots/{id}/tables, /snapshots/{id}/tables/{table}
  GET /metrics/{table}, /high-risk, /predictions, /model, /recommendations, /impact
  GET /healthz, /metrics (Prometheus)

Examples:
  pulse serve --mcp                           # Start with all tools
  pulse serve --mcp --tools metrics,predict   # Start with specific tools only
  pulse serve --mcp --timeout 30m             # Auto-stop after 30 minutes idle
  pulse serve --http --addr :8080             # HTTP API
  pulse serve --status                        # Check if a server is running
  pulse serve --stop                          # Stop the running server
  pulse serve --list-tools                    # Show available tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveHTTP      bool
	serveAddr      string
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Start HTTP API server")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of MCP tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "MCP inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available MCP tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		for _, name := range mcp.AllTools {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	}

	if serveStatus {
		return checkServerStatus()
	}

	if serveStop {
		return stopServer()
	}

	switch {
	case serveMCP && serveHTTP:
		return fmt.Errorf("--mcp and --http are exclusive")
	case serveMCP:
		return runServeMCP(cmd)
	case serveHTTP:
		return runServeHTTP(cmd)
	default:
		return fmt.Errorf("use --mcp or --http to start a server, or --help for usage")
	}
}

func runServeMCP(cmd *cobra.Command) error {
	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	for _, t := range splitList(serveTools) {
		tools = append(tools, normalizeToolName(t))
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	server, err := mcp.New(ws, mcp.Config{Tools: tools, Timeout: timeout})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := writePIDFile(ws.Dir); err != nil {
		ws.Log.WithError(err).Warn("could not write PID file")
	}
	defer removePIDFile(ws.Dir)

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		ws.Log.Info("mcp server shutting down")
		ws.Close()
		removePIDFile(ws.Dir)
		os.Exit(0)
	}()

	// stdout carries the MCP protocol; progress goes to the stderr logger
	ws.Log.WithFields(logrus.Fields{
		"tools":   server.ListTools(),
		"timeout": timeout,
	}).Info("starting mcp server")

	return server.ServeStdio()
}

func runServeHTTP(cmd *cobra.Command) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	addr := serveAddr
	if addr == "" {
		addr = ws.Config.Serve.Addr
	}

	server, err := api.New(ws)
	if err != nil {
		return err
	}

	if err := writePIDFile(ws.Dir); err != nil {
		ws.Log.WithError(err).Warn("could not write PID file")
	}
	defer removePIDFile(ws.Dir)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "pulse serve: http api on %s\n", addr)
	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// getPIDFilePath resolves the workspace the same way the server does, so
// --config reaches a server started with it.
func getPIDFilePath() (string, error) {
	_, dir, err := loadConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pidFileName), nil
}

const pidFileName = "serve.pid"

func writePIDFile(dir string) error {
	return os.WriteFile(filepath.Join(dir, pidFileName), []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile(dir string) {
	os.Remove(filepath.Join(dir, pidFileName))
}

func removeFoundPIDFile() {
	if pidPath, err := getPIDFilePath(); err == nil {
		os.Remove(pidPath)
	}
}

func checkServerStatus() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		fmt.Println("Status: not running (pulse not initialized)")
		return nil
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("Status: not running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Println("Status: not running (invalid PID file)")
		return nil
	}

	// Check if process exists
	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Println("Status: not running")
		removeFoundPIDFile()
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	err = process.Signal(syscall.Signal(0))
	if err != nil {
		fmt.Println("Status: not running (stale PID file)")
		removeFoundPIDFile()
		return nil
	}

	fmt.Printf("Status: running (PID %d)\n", pid)
	return nil
}

func stopServer() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return errNotInitialized
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("No server running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removeFoundPIDFile()
		return fmt.Errorf("invalid PID file")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removeFoundPIDFile()
		fmt.Println("No server running")
		return nil
	}

	// Send SIGTERM for graceful shutdown
	err = process.Signal(syscall.SIGTERM)
	if err != nil {
		removeFoundPIDFile()
		fmt.Println("Server already stopped")
		return nil
	}

	fmt.Printf("Stopped server (PID %d)\n", pid)
	return nil
}
