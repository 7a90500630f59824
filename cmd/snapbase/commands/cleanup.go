package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var cleanupKeepFull int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <source>",
	Short: "Drop all but the most recent snapshots of a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		dropped, err := ws.Cleanup(ctx, args[0], cleanupKeepFull)
		if err != nil {
			return handleError(err)
		}
		for _, name := range dropped {
			fmt.Printf("dropped %s/%s\n", args[0], name)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupKeepFull, "keep-full", 1, "number of most recent snapshots to retain")
}
