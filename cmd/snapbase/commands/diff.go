package commands

import (
	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <source> <from> <to>",
	Short: "Compare two committed snapshots of a source",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		record, err := ws.Diff(ctx, args[0], args[1], args[2])
		if err != nil {
			return handleError(err)
		}
		printChangeRecord(record)
		return nil
	},
}
