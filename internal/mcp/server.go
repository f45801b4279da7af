package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftplan/internal/auth"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan workout program server. Generate a multi-week program from the user's stored preferences, read the latest program, and log performed sets. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGenerateProgram, Handler: h.generateProgram},
		server.ServerTool{Tool: toolGetLatestProgram, Handler: h.getLatestProgram},
		server.ServerTool{Tool: toolListAccessibleExercises, Handler: h.listAccessibleExercises},
		server.ServerTool{Tool: toolUpdateSet, Handler: h.updateSet},
	)

	s.AddResources(
		server.ServerResource{Resource: resLatestProgram, Handler: h.latestProgramResource},
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. It must sit behind
// authentication middleware that puts the user id on the request context.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return auth.WithUserID(ctx, auth.UserIDFromContext(r.Context()))
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resLatestProgram = mcp.NewResource(
	"liftplan://latest_program",
	"Latest Program",
	mcp.WithResourceDescription("The most recently generated program with its sessions and sets"),
	mcp.WithMIMEType("application/json"),
)
