package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coalesce-dev/coalesce/internal/config"
	"github.com/coalesce-dev/coalesce/internal/engine"
	"github.com/coalesce-dev/coalesce/internal/export"
	"github.com/coalesce-dev/coalesce/internal/history"
	"github.com/coalesce-dev/coalesce/internal/reason"
	"github.com/coalesce-dev/coalesce/internal/resolve"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

// applyProjectConfig fills unset flags from coalesce.yml in the project root.
func applyProjectConfig(flags *cliFlags) {
	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: bad project config: %v\n", err)
		return
	}
	if flags.Rules == "" {
		flags.Rules = cfg.RulesPath
	}
	if flags.Report == "" {
		flags.Report = cfg.ReportPath
	}
	if flags.History == "" {
		flags.History = cfg.HistoryPath
	}
	if flags.ReasonEndpoint == "" {
		flags.ReasonEndpoint = cfg.ReasonEndpoint
	}
	if flags.MaxTokens == 0 {
		flags.MaxTokens = cfg.MaxContextTokens
	}
	if flags.Concurrency == 0 {
		flags.Concurrency = cfg.Concurrency
	}
	flags.Batch = flags.Batch || cfg.Batch
	flags.Verbose = flags.Verbose || cfg.Verbose
}

// buildRuleIndex loads rules from the configured file, falling back to the
// built-in set.
func buildRuleIndex(flags cliFlags) (*rules.Index, error) {
	ruleList := rules.DefaultRules()
	if flags.Rules != "" {
		loaded, err := rules.LoadRules(flags.Rules)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		// File rules are indexed after the defaults so they win on overlap.
		ruleList = append(ruleList, loaded...)
	}
	return rules.IndexRules(ruleList), nil
}

// buildResolver wires the AI resolver. Without a reasoning endpoint every
// conflict that needs AI escalates to human review.
func buildResolver(flags cliFlags, onEvent func(resolve.Event)) *resolve.Resolver {
	var caller resolve.Caller
	if flags.ReasonEndpoint != "" {
		caller = reason.NewHTTPCaller(flags.ReasonEndpoint)
	}

	opts := []resolve.Option{resolve.WithEventFunc(onEvent)}
	if flags.MaxTokens > 0 {
		opts = append(opts, resolve.WithMaxContextTokens(flags.MaxTokens))
	}
	if flags.Concurrency > 0 {
		opts = append(opts, resolve.WithConcurrency(flags.Concurrency))
	}
	return resolve.NewResolver(caller, opts...)
}

func runMerge(flags cliFlags) error {
	if flags.Input == "" {
		return fmt.Errorf("usage: coalesce -input <bundle.json> [-report <report.json>]")
	}

	data, err := os.ReadFile(flags.Input)
	if err != nil {
		return fmt.Errorf("read input bundle: %w", err)
	}
	var in engine.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse input bundle: %w", err)
	}
	if len(in.Tasks) == 0 {
		return fmt.Errorf("input bundle has no tasks")
	}
	in.Batch = in.Batch || flags.Batch

	idx, err := buildRuleIndex(flags)
	if err != nil {
		return err
	}

	reporter := resolve.NewProgressReporter()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range reporter.Subscribe() {
			if flags.Verbose {
				fmt.Fprintln(os.Stderr, resolve.FormatEvent(ev))
			}
		}
	}()

	resolver := buildResolver(flags, reporter.Emit)
	eng := engine.New(idx, resolver, flags.Verbose)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	rep := eng.Merge(ctx, in)
	reporter.Close()
	<-done

	if flags.Report != "" {
		if err := rep.Save(flags.Report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}
	if flags.Export != "" {
		if err := export.WriteSummary(rep, flags.Export); err != nil {
			return err
		}
	}

	store, err := openHistoryStore(flags.History)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history store unavailable: %v\n", err)
	} else if store != nil {
		defer store.Close()
		if err := store.InitSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history schema: %v\n", err)
		} else if runID, err := history.RecordReport(ctx, store, rep); err != nil {
			fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
		} else if flags.Verbose {
			fmt.Fprintf(os.Stderr, "recorded run %s\n", runID)
		}
	}

	printSummary(rep)

	if !rep.Success {
		return fmt.Errorf("merge finished with unresolved conflicts")
	}
	return nil
}
