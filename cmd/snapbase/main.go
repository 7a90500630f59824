package main

import (
	"os"

	"github.com/snapbase/snapbase/cmd/snapbase/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
