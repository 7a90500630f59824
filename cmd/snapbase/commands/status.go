package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var statusCompareTo string

var statusCmd = &cobra.Command{
	Use:   "status <source>",
	Short: "Compare a tracked file's current contents against a committed baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		compareTo := statusCompareTo
		if compareTo == "" {
			compareTo = "latest"
		}
		record, err := ws.Status(ctx, args[0], compareTo, args[0])
		if err != nil {
			return handleError(err)
		}
		printChangeRecord(record)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusCompareTo, "compare-to", "", "baseline snapshot reference (defaults to latest)")
}
