package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	snapshotName     string
	snapshotDatabase string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [source]",
	Short: "Commit a new snapshot of a file, SQL script, or database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}

		switch {
		case snapshotDatabase != "" && len(args) == 0:
			snaps, err := ws.SnapshotDatabase(ctx, snapshotDatabase)
			if err != nil {
				return handleError(err)
			}
			for _, s := range snaps {
				fmt.Printf("snapshot %s/%s committed\n", s.SourceKey, s.Name)
			}
			return nil

		case len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".sql"):
			if snapshotDatabase == "" {
				return handleError(snaperr.NewConfigInvalid("snapshotting a .sql source requires --database"))
			}
			snap, err := ws.SnapshotSQLScript(ctx, args[0], snapshotDatabase, snapshotName)
			if err != nil {
				return handleError(err)
			}
			fmt.Printf("snapshot %s/%s committed\n", snap.SourceKey, snap.Name)
			return nil

		case len(args) == 1:
			snap, err := ws.Snapshot(ctx, args[0], snapshotName)
			if err != nil {
				return handleError(err)
			}
			fmt.Printf("snapshot %s/%s committed\n", snap.SourceKey, snap.Name)
			return nil

		default:
			return handleError(snaperr.NewConfigInvalid("snapshot requires either a file/script source argument or --database"))
		}
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotName, "name", "", "snapshot name (defaults to the configured name pattern)")
	snapshotCmd.Flags().StringVar(&snapshotDatabase, "database", "", "database alias to snapshot (live tables, or the target for a .sql script)")
}
