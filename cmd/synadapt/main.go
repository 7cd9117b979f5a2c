// Package main is the entry point for the synadapt CLI.
package main

import (
	"os"

	"github.com/ekisa-team/synadapt/cmd/synadapt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
