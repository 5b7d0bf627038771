// Package mcp exposes the conform engine over the Model Context Protocol so
// agents can validate candidate payloads, inspect the exported schema, and
// dispatch operations through a stdio transport.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/internal/dispatch"
	"github.com/rendis/conform/internal/pipeline"
	"github.com/rendis/conform/internal/store"
)

// ConformServerDeps holds the dependencies for creating a ConformServer.
type ConformServerDeps struct {
	Model      *constraint.Node
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher
	Pipeline   *pipeline.Pipeline
	Store      store.Store
	Logger     *slog.Logger
}

// ConformServer wraps an MCP server with conform-specific tool handlers.
type ConformServer struct {
	model      *constraint.Node
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	pipeline   *pipeline.Pipeline
	store      store.Store
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// NewConformServer creates a new ConformServer with all 6 tools registered.
func NewConformServer(deps ConformServerDeps) *ConformServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &ConformServer{
		model:      deps.Model,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		pipeline:   deps.Pipeline,
		store:      deps.Store,
		logger:     logger,
	}

	mcpSrv := server.NewMCPServer(
		"conform",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Conform validates generated payloads against a strict schema and dispatches validated payloads to registered operations. Use conform.schema to fetch the JSON Schema a payload must satisfy, conform.validate to check a candidate and get exhaustive feedback, conform.process to run the full validate-decide-dispatch flow, conform.dispatch to invoke an operation directly, conform.operations to list operations, and conform.history to inspect recent attempts."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *ConformServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *ConformServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 6 registered MCP tools as ServerTool entries.
func (s *ConformServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: processTool(), Handler: s.handleProcess},
		{Tool: dispatchTool(), Handler: s.handleDispatch},
		{Tool: schemaTool(), Handler: s.handleSchema},
		{Tool: operationsTool(), Handler: s.handleOperations},
		{Tool: historyTool(), Handler: s.handleHistory},
	}
}

// --- Tool definitions ---

func validateTool() mcp.Tool {
	return mcp.NewTool("conform.validate",
		mcp.WithDescription("Validate a candidate payload against the configured schema. Returns every violation found in one pass plus feedback text for a corrective retry"),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Raw JSON payload to validate")),
	)
}

func processTool() mcp.Tool {
	return mcp.NewTool("conform.process",
		mcp.WithDescription("Run a candidate payload end to end: validate, select an operation via the decision table, and dispatch it"),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Raw JSON payload to process")),
	)
}

func dispatchTool() mcp.Tool {
	return mcp.NewTool("conform.dispatch",
		mcp.WithDescription("Dispatch a registered operation directly. Arguments are validated against the operation's schema before the executor runs"),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Name of the registered operation")),
		mcp.WithObject("args", mcp.Description("Operation arguments")),
	)
}

func schemaTool() mcp.Tool {
	return mcp.NewTool("conform.schema",
		mcp.WithDescription("Return the JSON Schema (Draft 2020-12) a candidate payload must satisfy"),
	)
}

func operationsTool() mcp.Tool {
	return mcp.NewTool("conform.operations",
		mcp.WithDescription("List registered operations with their descriptions"),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("conform.history",
		mcp.WithDescription("Inspect recent validation attempts or dispatch outcomes"),
		mcp.WithString("kind", mcp.Required(),
			mcp.Enum("validations", "dispatches"),
			mcp.Description("Which audit trail to read"),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum records to return (default 50)")),
	)
}
