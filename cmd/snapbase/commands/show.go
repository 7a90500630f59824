package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <source> <name>",
	Short: "Show a committed snapshot's schema and row count",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		snap, err := ws.Store.Resolve(ctx, args[0], args[1])
		if err != nil {
			return handleError(err)
		}
		table, err := ws.Store.ReadData(ctx, snap)
		if err != nil {
			return handleError(err)
		}
		fmt.Printf("snapshot: %s\ncreated: %s\nrows: %d\nschema:\n", snap.Name, snap.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), table.RowCount())
		for _, c := range table.Schema.Columns {
			fmt.Printf("  %s %s\n", c.Name, c.Type)
		}
		return nil
	},
}
