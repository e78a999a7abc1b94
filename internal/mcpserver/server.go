package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/agentx-labs/agentdir/internal/branding"
	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Transport names accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Server holds the MCP server and the collaborators its tools read from.
type Server struct {
	store    directory.Store
	registry *registry.Registry
	logger   *zap.Logger
	mcp      *server.MCPServer
}

// New builds a server over store and reg and registers every tool.
func New(store directory.Store, reg *registry.Registry, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		registry: reg,
		logger:   logger,
		mcp: server.NewMCPServer(
			branding.ServerName(),
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("Lists agents as lightweight summaries: name, description, provider, model and counts of assigned functions, agents and MCP servers."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of agents to return. Omit for all.")),
		mcp.WithString("mcp_server", mcp.Description("Only return agents assigned this MCP server.")),
		mcp.WithBoolean("sort_by_name", mcp.Description("Sort by agent name instead of directory order.")),
	), s.HandleListAgents)

	s.mcp.AddTool(mcp.NewTool("get_agent",
		mcp.WithDescription("Returns the full configuration of one agent."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Directory key of the agent.")),
	), s.HandleGetAgent)

	s.mcp.AddTool(mcp.NewTool("list_agent_details",
		mcp.WithDescription("Returns the full configuration of every agent, sorted by agent name."),
	), s.HandleListAgentDetails)

	s.mcp.AddTool(mcp.NewTool("create_agent",
		mcp.WithDescription("Validates and stores a new agent configuration under key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Directory key for the new agent.")),
		mcp.WithObject("config", mcp.Required(), mcp.Description("Complete agent configuration.")),
		mcp.WithBoolean("check_refs", mcp.Description("Reject assigned agents and functions that do not exist.")),
	), s.HandleCreateAgent)

	s.mcp.AddTool(mcp.NewTool("update_agent",
		mcp.WithDescription("Applies a partial update to an agent. Fields present replace the stored values; arrays and custom_settings are replaced wholesale."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Directory key of the agent.")),
		mcp.WithObject("update", mcp.Required(), mcp.Description("Fields to change.")),
		mcp.WithBoolean("check_refs", mcp.Description("Reject assigned agents and functions that do not exist.")),
	), s.HandleUpdateAgent)

	s.mcp.AddTool(mcp.NewTool("list_functions",
		mcp.WithDescription("Lists every callable function from the service registry, named <service>_<tool>."),
		mcp.WithString("service", mcp.Description("Only return functions of this service.")),
	), s.HandleListFunctions)
}

// Serve runs the server on transport until ctx is cancelled or the
// transport fails. addr is ignored for stdio.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		s.logger.Info("serving MCP over stdio")
		return server.ServeStdio(s.mcp)
	case TransportSSE:
		sse := server.NewSSEServer(s.mcp)
		return s.serveHTTP(ctx, addr, sse.Start, sse.Shutdown)
	case TransportHTTP:
		h := server.NewStreamableHTTPServer(s.mcp)
		return s.serveHTTP(ctx, addr, h.Start, h.Shutdown)
	default:
		return fmt.Errorf("unknown transport %q (valid: %s, %s, %s)", transport, TransportStdio, TransportSSE, TransportHTTP)
	}
}

func (s *Server) serveHTTP(ctx context.Context, addr string, start func(string) error, shutdown func(context.Context) error) error {
	s.logger.Info("serving MCP over HTTP", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() { errCh <- start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down MCP server")
		return shutdown(context.Background())
	}
}
