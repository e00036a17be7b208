// Package main is the entry point for the conda-envs SwiftBar plugin.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"menubar/internal/cli"
	"menubar/internal/plugins/conda"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A clicked environment line passes the bare environment name.
	dispatcher := cli.NewDispatcher(conda.Registry, conda.NewEnv, cli.WithBareCommand(conda.CopyCommand))

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
