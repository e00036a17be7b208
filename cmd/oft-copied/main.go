// Package main is the entry point for the oft-copied SwiftBar plugin.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"menubar/internal/cli"
	"menubar/internal/plugins/snippets"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(snippets.Registry, snippets.NewEnv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
