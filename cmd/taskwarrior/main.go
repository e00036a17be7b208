// Package main is the entry point for the taskwarrior SwiftBar plugin.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"menubar/internal/cli"
	"menubar/internal/plugins/taskwarrior"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(taskwarrior.Registry, taskwarrior.NewEnv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
