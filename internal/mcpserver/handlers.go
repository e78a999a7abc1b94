package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/discovery"
	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// HandleListAgents returns tier-1 summaries.
func (s *Server) HandleListAgents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := limitArg(req)
	if err != nil {
		return s.toolError("list_agents", err), nil
	}
	opts := discovery.SummaryOptions{
		Limit:      limit,
		MCPServer:  req.GetString("mcp_server", ""),
		SortByName: req.GetBool("sort_by_name", false),
	}
	entries, err := s.store.GetAll(ctx)
	if err != nil {
		return s.toolError("list_agents", err), nil
	}
	summaries, err := discovery.ListSummaries(entries, opts)
	if err != nil {
		return s.toolError("list_agents", err), nil
	}
	return jsonResult(summaries)
}

// HandleGetAgent returns one agent's detail view.
func (s *Server) HandleGetAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := s.store.Get(ctx, key)
	if err != nil {
		return s.toolError("get_agent", err), nil
	}
	return jsonResult(discovery.ProjectDetail(key, *cfg))
}

// HandleListAgentDetails returns every agent's detail view, sorted by name.
func (s *Server) HandleListAgentDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.store.GetAll(ctx)
	if err != nil {
		return s.toolError("list_agent_details", err), nil
	}
	return jsonResult(discovery.ListDetails(entries))
}

// HandleCreateAgent validates and stores a new agent.
func (s *Server) HandleCreateAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := objectArg(req, "config")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := agentconfig.Validate(raw)
	if err != nil {
		return s.toolError("create_agent", err), nil
	}
	if req.GetBool("check_refs", false) {
		if err := s.checkRefs(ctx, *cfg); err != nil {
			return s.toolError("create_agent", err), nil
		}
	}

	created, err := s.store.Create(ctx, key, *cfg)
	if err != nil {
		return s.toolError("create_agent", err), nil
	}
	s.logger.Info("agent created", zap.String("key", key))
	return jsonResult(discovery.ProjectDetail(key, *created))
}

// HandleUpdateAgent merges a partial update onto a stored agent.
func (s *Server) HandleUpdateAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := objectArg(req, "update")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	update, err := agentconfig.ValidateUpdate(raw)
	if err != nil {
		return s.toolError("update_agent", err), nil
	}

	if req.GetBool("check_refs", false) {
		existing, err := s.store.Get(ctx, key)
		if err != nil {
			return s.toolError("update_agent", err), nil
		}
		if err := s.checkRefs(ctx, agentconfig.Merge(*existing, *update)); err != nil {
			return s.toolError("update_agent", err), nil
		}
	}

	updated, err := s.store.Update(ctx, key, *update)
	if err != nil {
		return s.toolError("update_agent", err), nil
	}
	s.logger.Info("agent updated", zap.String("key", key), zap.Strings("fields", update.SetFields()))
	return jsonResult(discovery.ProjectDetail(key, *updated))
}

// HandleListFunctions returns the flattened function catalog.
func (s *Server) HandleListFunctions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fns, err := registry.ListFunctions(s.registry)
	if err != nil {
		return s.toolError("list_functions", err), nil
	}
	if service := req.GetString("service", ""); service != "" {
		if _, ok := s.registry.Service(service); !ok {
			return s.toolError("list_functions", agentconfig.NewValidationError(
				"service", agentconfig.RuleReference, fmt.Sprintf("unknown service %q", service))), nil
		}
		filtered := make([]registry.FunctionDescriptor, 0, len(fns))
		for _, fn := range fns {
			if fn.Service == service {
				filtered = append(filtered, fn)
			}
		}
		fns = filtered
	}
	return jsonResult(fns)
}

func (s *Server) checkRefs(ctx context.Context, cfg agentconfig.AgentConfig) error {
	agents, functions, err := discovery.KnownReferences(ctx, s.store, s.registry)
	if err != nil {
		return err
	}
	return discovery.CheckAssignments(cfg, agents, functions)
}

// toolError converts err into an error result. Caller mistakes are logged at
// warn, everything else at error.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	var (
		ve  *agentconfig.ValidationError
		nf  *directory.NotFoundError
		dup *directory.DuplicateKeyError
		ce  *registry.ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		s.logger.Warn("invalid tool input",
			zap.String("tool", tool),
			zap.String("field", ve.Field()),
			zap.String("rule", ve.Rule()),
			zap.Int("issues", len(ve.Issues)))
		data, _ := json.Marshal(ve)
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %s", data))
	case errors.As(err, &nf), errors.As(err, &dup):
		s.logger.Warn("tool request rejected", zap.String("tool", tool), zap.Error(err))
	case errors.As(err, &ce):
		s.logger.Error("service registry is misconfigured", zap.String("tool", tool), zap.Error(err))
	default:
		s.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return mcp.NewToolResultError(err.Error())
}

// limitArg reads the optional limit. JSON numbers arrive as float64, so
// fractional values are rejected rather than truncated.
func limitArg(req mcp.CallToolRequest) (int, error) {
	f := req.GetFloat("limit", 0)
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, agentconfig.NewValidationError("limit", agentconfig.RuleRange,
			fmt.Sprintf("limit must be a whole number, got %v", f))
	}
	return int(f), nil
}

func objectArg(req mcp.CallToolRequest, name string) (map[string]any, error) {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("required argument %q not found", name)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", name)
	}
	return obj, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
