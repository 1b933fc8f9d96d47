package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/workspace"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health",
	Long: `Run health checks on the .pulse workspace.

Checks:
  - Model cache integrity (SQLite integrity_check)
  - Snapshot integrity (every roster loads, validates and matches its fingerprint)
  - Stale models (cached for rosters no longer in the store)

Examples:
  pulse doctor        # Run all checks
  pulse doctor --fix  # Run checks and prune stale models`,
	RunE: runDoctor,
}

var doctorFix bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Auto-fix issues found")
}

type doctorResult struct {
	passed       bool
	issueCount   int
	issueDetails []string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# pulse doctor")
	totalIssues := 0

	report := func(title, ok, bad string, check func() doctorResult) {
		fmt.Fprintf(out, "# Checking %s...\n", title)
		result := check()
		if result.passed {
			fmt.Fprintf(out, "#   ✓ %s\n", ok)
			return
		}
		fmt.Fprintf(out, "#   ✗ %s\n", fmt.Sprintf(bad, result.issueCount))
		for _, detail := range result.issueDetails {
			fmt.Fprintf(out, "#     - %s\n", detail)
		}
		totalIssues += result.issueCount
	}

	var valid map[string]bool
	report("model cache integrity", "Model cache integrity OK", "Model cache integrity check failed (%d)",
		func() doctorResult { return checkIntegrity(ws.Cache.DB()) })
	report("snapshots", "All snapshots load and match their fingerprint", "%d snapshot(s) failed to load",
		func() doctorResult {
			var result doctorResult
			valid, result = checkSnapshots(cmd.Context(), ws)
			return result
		})
	report("stale models", "No stale models found", "Found %d stale model(s)",
		func() doctorResult { return checkStaleModels(out, ws, valid) })

	fmt.Fprintln(out, "#")
	if totalIssues == 0 {
		fmt.Fprintln(out, "# Summary: All checks passed ✓")
	} else {
		fmt.Fprintf(out, "# Summary: %d issue(s) found\n", totalIssues)
		if !doctorFix {
			fmt.Fprintln(out, "# Run with --fix to repair")
		}
	}

	return nil
}

// checkIntegrity runs SQLite's PRAGMA integrity_check
func checkIntegrity(db *sql.DB) doctorResult {
	var integrityResult string
	err := db.QueryRow("PRAGMA integrity_check").Scan(&integrityResult)
	if err != nil {
		return doctorResult{
			issueCount:   1,
			issueDetails: []string{fmt.Sprintf("integrity check error: %v", err)},
		}
	}

	if integrityResult == "ok" {
		return doctorResult{passed: true}
	}

	return doctorResult{
		issueCount:   1,
		issueDetails: []string{integrityResult},
	}
}

// checkSnapshots loads every snapshot and returns the fingerprints that
// loaded cleanly.
func checkSnapshots(ctx context.Context, ws *workspace.Workspace) (map[string]bool, doctorResult) {
	valid := make(map[string]bool)
	snaps, err := ws.Store.ListSnapshots(ctx)
	if err != nil {
		return valid, doctorResult{issueCount: 1, issueDetails: []string{err.Error()}}
	}

	var details []string
	for _, snap := range snaps {
		r, err := ws.Store.LoadRoster(ctx, snap.ID)
		if err != nil {
			details = append(details, fmt.Sprintf("%s: %v", snap.ID, err))
			continue
		}
		if got := r.Fingerprint(); got != snap.Fingerprint {
			details = append(details, fmt.Sprintf("%s: fingerprint %s, stored %s", snap.ID, got, snap.Fingerprint))
			continue
		}
		valid[snap.Fingerprint] = true
	}

	if len(details) == 0 {
		return valid, doctorResult{passed: true}
	}
	return valid, doctorResult{issueCount: len(details), issueDetails: details}
}

// checkStaleModels finds cached models whose roster is not a valid snapshot.
func checkStaleModels(out io.Writer, ws *workspace.Workspace, valid map[string]bool) doctorResult {
	entries, err := ws.Cache.ListModels()
	if err != nil {
		return doctorResult{issueCount: 1, issueDetails: []string{err.Error()}}
	}

	stale := make(map[string]bool)
	var details []string
	for _, e := range entries {
		if valid[e.Fingerprint] || stale[e.Fingerprint] {
			continue
		}
		stale[e.Fingerprint] = true
		details = append(details, fmt.Sprintf("%s (%s)", e.Fingerprint, e.Params))
	}

	if len(stale) == 0 {
		return doctorResult{passed: true}
	}

	if doctorFix {
		n, err := ws.Cache.PruneStale(valid)
		if err != nil {
			fmt.Fprintf(out, "#     ⚠ Failed to prune: %v\n", err)
		} else {
			fmt.Fprintf(out, "#   ✓ Pruned models for %d roster(s)\n", n)
			return doctorResult{passed: true}
		}
	}

	return doctorResult{
		issueCount:   len(stale),
		issueDetails: details,
	}
}
