package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <source>",
	Short: "List every committed snapshot of a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		snaps, err := ws.List(ctx, args[0])
		if err != nil {
			return handleError(err)
		}
		for _, s := range snaps {
			fmt.Printf("%s\t%s\n", s.Name, s.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
		}
		return nil
	},
}
