package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMergeMCPServer creates an MCP server with the 4 merge tools registered:
// detect_conflicts, merge_tasks, get_run_status, and list_runs.
func NewMergeMCPServer(svc *MergeService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "coalesce",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_conflicts",
		Description: "Detect semantic conflicts between parallel tasks' edits. Groups changes by file and location, applies compatibility rules, and returns the conflict regions with severity and merge strategy.",
	}, svc.DetectConflicts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_tasks",
		Description: "Run a full merge: detect conflicts, auto-merge compatible changes, resolve the rest with AI where possible, and return the merge report.",
	}, svc.MergeTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_run_status",
		Description: "Look up a recorded merge run by ID, returning the run record and its observed conflicts.",
	}, svc.GetRunStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List the most recent recorded merge runs with aggregate statistics.",
	}, svc.ListRuns)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP starts an HTTP server exposing the merge MCP tools.
func RunMCPServerHTTP(ctx context.Context, svc *MergeService, addr string) error {
	server := NewMergeMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
