// Package main is the entry point for the gts-validator CLI application.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/eykd/gts-validator/cmd"
)

func main() {
	// Cancel on SIGINT so watch mode and long scans stop cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := cmd.NewRootCmd(nil)
	root.SetContext(ctx)
	// RunCLI prints errors with cmd.FormatError because the root command
	// sets SilenceErrors.
	code := cmd.RunCLI(root, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
