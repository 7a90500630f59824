package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/query"
	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	querySources []string
	querySnap    string
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run SQL against one or more sources' snapshot history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		if len(querySources) == 0 {
			return handleError(fmt.Errorf("at least one --source is required"))
		}
		sources := make([]query.Source, len(querySources))
		for i, s := range querySources {
			sources[i] = query.Source{Key: s}
		}
		snap := querySnap
		if snap == "" {
			snap = "*"
		}
		result, err := ws.Query(ctx, sources, args[0], snap)
		if err != nil {
			return handleError(err)
		}
		fmt.Println(result.Schema.Names())
		for _, row := range result.Rows {
			fmt.Println(row)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringArrayVar(&querySources, "source", nil, "source key to bind (repeatable)")
	queryCmd.Flags().StringVar(&querySnap, "snapshot", "", "snapshot filter: literal name, glob, \"latest\", or \"*\" for all (default)")
}
