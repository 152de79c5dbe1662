package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coalesce-dev/coalesce/internal/engine"
	"github.com/coalesce-dev/coalesce/internal/mcptools"
)

// runServe starts the MCP server on stdio or, with -serve-http, on an HTTP
// address. The server shares one engine and history store across calls.
func runServe(flags cliFlags) error {
	idx, err := buildRuleIndex(flags)
	if err != nil {
		return err
	}

	resolver := buildResolver(flags, nil)
	eng := engine.New(idx, resolver, flags.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openHistoryStore(flags.History)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	if store != nil {
		defer store.Close()
		if err := store.InitSchema(ctx); err != nil {
			return fmt.Errorf("init history schema: %w", err)
		}
	}

	svc := mcptools.NewMergeService(eng, idx, store)

	if flags.ServeHTTP != "" {
		fmt.Fprintf(os.Stderr, "coalesce MCP server listening on %s\n", flags.ServeHTTP)
		return mcptools.RunMCPServerHTTP(ctx, svc, flags.ServeHTTP)
	}
	return mcptools.RunMCPServerStdio(ctx, mcptools.NewMergeMCPServer(svc))
}
