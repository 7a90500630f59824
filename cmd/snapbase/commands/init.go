package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a workspace in the current (or given) directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace.Init(cmd.Context(), workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		fmt.Printf("initialized workspace at %s\n", ws.Root)
		return nil
	},
}
