// Package mcp exposes shard planning to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/submission"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

// ServerName is reported to MCP clients during initialisation.
const ServerName = "shardrun"

// Planner renders plans.
type Planner interface {
	Plan(ctx context.Context, params service.PlanParams) (service.Plan, error)
}

// RecipeLister lists catalog recipes.
type RecipeLister interface {
	List() []recipe.Recipe
}

// SubmissionLister reads submission history.
type SubmissionLister interface {
	List(ctx context.Context, params service.ListParams) ([]submission.Submission, error)
}

// Server wraps the MCP server with shardrun tools.
type Server struct {
	mcpServer   *server.MCPServer
	planner     Planner
	recipes     RecipeLister
	submissions SubmissionLister
	logger      *slog.Logger
}

// NewServer creates an MCP server. Plans are read-only; launching jobs is
// left to the CLI and HTTP API.
func NewServer(planner Planner, recipes RecipeLister, submissions SubmissionLister, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		planner:     planner,
		recipes:     recipes,
		submissions: submissions,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(true))
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("plan_shards",
		mcp.WithDescription("Partition a workload into shards and render one command per shard. "+
			"Returns the shard ranges, the per-shard commands and the joined command line."),
		mcp.WithString("recipe",
			mcp.Description("Recipe name from list_recipes. Ignored when template is set."),
		),
		mcp.WithString("template",
			mcp.Description("Ad-hoc per-shard command template using {{.Start}}, {{.End}}, {{.Output}} and friends"),
		),
		mcp.WithNumber("total_items",
			mcp.Description("Number of items to partition (default: the recipe's)"),
		),
		mcp.WithNumber("num_shards",
			mcp.Description("Number of shards (default: the recipe's)"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Output directory override"),
		),
		mcp.WithString("run_id",
			mcp.Description("Run identifier (default: generated)"),
		),
		mcp.WithObject("params",
			mcp.Description("String parameters merged over the recipe's params"),
		),
	), s.handlePlanShards)

	mcpServer.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List the available recipes with their default sizing and steps"),
	), s.handleListRecipes)

	mcpServer.AddTool(mcp.NewTool("list_submissions",
		mcp.WithDescription("List recorded launcher submissions, newest first"),
		mcp.WithString("run_id", mcp.Description("Filter by run ID")),
		mcp.WithString("recipe", mcp.Description("Filter by recipe")),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(string(submission.StatusPending), string(submission.StatusSubmitted),
				string(submission.StatusFailed), string(submission.StatusDryRun)),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum number of submissions (default: 20)")),
	), s.handleListSubmissions)
}

func (s *Server) handlePlanShards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := service.PlanParams{
		Recipe:    request.GetString("recipe", ""),
		Template:  request.GetString("template", ""),
		OutputDir: request.GetString("output_dir", ""),
		RunID:     request.GetString("run_id", ""),
	}
	args := request.GetArguments()
	if _, ok := args["total_items"]; ok {
		n := request.GetInt("total_items", 0)
		params.TotalItems = &n
	}
	if _, ok := args["num_shards"]; ok {
		n := request.GetInt("num_shards", 0)
		params.NumShards = &n
	}
	vars, err := stringMap(args["params"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params.Params = vars

	plan, err := s.planner.Plan(ctx, params)
	if err != nil {
		s.logger.Warn("plan_shards failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("plan failed: %v", err)), nil
	}

	return jsonResult(dto.NewPlan(plan))
}

func (s *Server) handleListRecipes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(dto.NewRecipes(s.recipes.List()))
}

func (s *Server) handleListSubmissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := submission.Status(request.GetString("status", ""))
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", status)), nil
	}

	subs, err := s.submissions.List(ctx, service.ListParams{
		RunID:  request.GetString("run_id", ""),
		Recipe: request.GetString("recipe", ""),
		Status: status,
		Limit:  request.GetInt("limit", 20),
	})
	if err != nil {
		s.logger.Error("list_submissions failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("list submissions: %v", err)), nil
	}

	return jsonResult(dto.NewSubmissions(subs))
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func stringMap(v any) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params must be an object")
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		switch tv := val.(type) {
		case string:
			out[k] = tv
		case float64, bool:
			out[k] = fmt.Sprint(tv)
		default:
			return nil, fmt.Errorf("param %q must be a string", k)
		}
	}
	return out, nil
}
