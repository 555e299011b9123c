// Package main provides the entry point for presupuesto-cli, the
// command-line client for presupuesto-server.
package main

import (
	"fmt"
	"os"

	"github.com/abustosp/app-presupuesto/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
