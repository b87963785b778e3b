// Package main is the entry point for the taskdesk CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskdesk/internal/cli"
	"taskdesk/internal/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	factory, metrics := cli.NewAPIFactory()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.WithGatherer(metrics))

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
