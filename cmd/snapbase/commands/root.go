// Package commands is the thin CLI front-end over the core workspace
// façade. Argument parsing, output formatting, and process exit codes live
// here; every command immediately delegates to internal/workspace.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var workspaceRoot string

var rootCmd = &cobra.Command{
	Use:     "snapbase",
	Short:   "Snapbase - data version control for tabular datasets",
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logging.Initialize("info")
	rootCmd.PersistentFlags().StringVar(&workspaceRoot, "workspace", ".", "workspace root directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(cleanupCmd)
}

// handleError prints the error's kind and message and sets a non-zero
// exit code, per the CLI surface's "exit code 0 on success; non-zero with
// the error kind printed on failure" contract.
func handleError(err error) error {
	var se *snaperr.Error
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", se.Kind, se.Message)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
