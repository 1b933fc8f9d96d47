package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/store"
)

// snapshotsCmd represents the snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List or delete stored roster snapshots",
	Long: `List stored roster snapshots, newest first.

Every analytics command reads the newest snapshot unless --snapshot names
another one.

Examples:
  pulse snapshots                 # List snapshots
  pulse snapshots --format json
  pulse snapshots --delete <id>   # Delete a snapshot and its tables`,
	Args: cobra.NoArgs,
	RunE: runSnapshots,
}

var snapshotsDelete string

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.Flags().StringVar(&snapshotsDelete, "delete", "", "Delete the snapshot with this id")
}

// snapshotList is the snapshots command output.
type snapshotList struct {
	Snapshots []store.Snapshot `yaml:"snapshots" json:"snapshots"`
	Count     int              `yaml:"count" json:"count"`
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	if snapshotsDelete != "" {
		snap, err := ws.Store.GetSnapshot(cmd.Context(), snapshotsDelete)
		if err != nil {
			return err
		}
		if err := ws.Store.DeleteSnapshot(cmd.Context(), snap.ID); err != nil {
			return err
		}
		ws.Session.Forget(snap.Fingerprint)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", snap.ID)
		return nil
	}

	snaps, err := ws.Store.ListSnapshots(cmd.Context())
	if err != nil {
		return err
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	return writeOutput(cmd, ws, snapshotList{Snapshots: snaps, Count: len(snaps)})
}
