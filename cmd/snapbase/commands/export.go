package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/export"
	"github.com/snapbase/snapbase/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	exportTo     string
	exportFile   string
	exportForce  bool
	exportDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export <source>",
	Short: "Materialize a committed snapshot to a CSV or Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := workspace.Open(ctx, workspaceRoot)
		if err != nil {
			return handleError(err)
		}
		if exportFile == "" {
			return handleError(fmt.Errorf("--file is required"))
		}
		reference := exportTo
		if reference == "" {
			reference = "latest"
		}
		result, err := ws.Export(ctx, args[0], reference, exportFile, export.Options{Force: exportForce, DryRun: exportDryRun})
		if err != nil {
			return handleError(err)
		}
		if result.Wrote {
			fmt.Printf("exported snapshot %s (%d rows) to %s\n", result.SnapshotName, result.RowCount, result.OutputPath)
		} else {
			fmt.Printf("dry run: would export snapshot %s (%d rows) to %s\n", result.SnapshotName, result.RowCount, result.OutputPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "snapshot reference to export (defaults to latest)")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file path (.csv or .parquet)")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "overwrite the output file if it already exists")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "report what would be exported without writing")
}
