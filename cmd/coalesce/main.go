package main

import (
	"flag"
	"fmt"
	"os"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot    string
	Rules          string
	Input          string
	Report         string
	Export         string
	History        string
	ReasonEndpoint string
	MaxTokens      int
	Concurrency    int
	Batch          bool
	Verbose        bool
	ServeMCP       bool
	ServeHTTP      string
	Analyze        string
	ListRuns       bool
	Version        bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("coalesce", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the target project")
	fs.StringVar(&flags.Rules, "rules", "", "path to a YAML compatibility rule file (defaults built in)")
	fs.StringVar(&flags.Input, "input", "", "path to a merge input bundle (JSON)")
	fs.StringVar(&flags.Report, "report", "", "path to write the merge report (JSON)")
	fs.StringVar(&flags.Export, "export", "", "path to write a flattened summary (.json) or conflict diagram (.mmd)")
	fs.StringVar(&flags.History, "history", "", "path to the merge-history database")
	fs.StringVar(&flags.ReasonEndpoint, "reason-endpoint", "", "JSON-RPC endpoint of the reasoning service")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 0, "context token budget per AI call")
	fs.IntVar(&flags.Concurrency, "concurrency", 0, "maximum concurrent AI calls")
	fs.BoolVar(&flags.Batch, "batch", false, "resolve all of a file's conflicts with one AI call")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.StringVar(&flags.ServeHTTP, "serve-http", "", "run as MCP server on the given HTTP address")
	fs.StringVar(&flags.Analyze, "analyze", "", "path to an analysis manifest; writes a merge input bundle to stdout")
	fs.BoolVar(&flags.ListRuns, "list-runs", false, "list recorded merge runs and exit")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	applyProjectConfig(&flags)

	switch {
	case flags.Analyze != "":
		return runAnalyze(flags)
	case flags.ListRuns:
		return runListRuns(flags)
	case flags.ServeMCP, flags.ServeHTTP != "":
		return runServe(flags)
	default:
		return runMerge(flags)
	}
}
