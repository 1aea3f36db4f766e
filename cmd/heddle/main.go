// Package main is the entry point for the heddle dependency manager.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.heddle.dev/heddle/cmd/heddle/commands"
	"go.heddle.dev/heddle/internal/app"
	_ "go.heddle.dev/heddle/internal/wiring"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	provider commands.ComponentProvider,
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Interface - CLI. Components boot lazily inside the commands so the
	// parsed flags are visible to the adapter nodes.
	cli := commands.New(provider)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	// 2. Execution
	if err := cli.Execute(ctx); err != nil {
		// zerr prints a report with stack trace and metadata under %+v
		_, _ = fmt.Fprintf(stderr, "%+v\n", err)
		return 1
	}
	return 0
}
