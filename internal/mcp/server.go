package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/config"
)

// Config holds MCP server configuration.
type Config struct {
	// Source returns the active configuration on every call, so a reload
	// watcher can swap thresholds under a running server. Nil means defaults.
	Source  func() *config.Config
	Clock   clock.Clock
	Logger  *slog.Logger
	Version string
}

// Server wraps the MCP SDK server with the tripcheck engines.
type Server struct {
	mcpServer *mcpsdk.Server
	source    func() *config.Config
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates an MCP server with all tools registered.
func New(cfg Config) *Server {
	source := cfg.Source
	if source == nil {
		defaults := config.DefaultConfig()
		source = func() *config.Config { return defaults }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		source: source,
		clock:  clock.OrReal(cfg.Clock),
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "tripcheck",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// config returns the active configuration, never nil.
func (s *Server) config() *config.Config {
	if cfg := s.source(); cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

// registerTools adds all tripcheck tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tripcheck_verdict",
		Description: "Compute the GO / POSSIBLE / DIFFICULT feasibility verdict for a trip from a feasibility report or a ready verdict input.",
	}, s.handleVerdict)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tripcheck_blocker_delta",
		Description: "Normalize a change planner response into a blocker delta (before, after, resolved, added).",
	}, s.handleBlockerDelta)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tripcheck_diff",
		Description: "Compare an original trip snapshot with an updated one: certainty, verdict, budget, blockers and input changes.",
	}, s.handleDiff)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tripcheck_suggest",
		Description: "Suggest the single highest-impact fix for a trip snapshot. Pass the original snapshot to boost fixes for newly introduced blockers.",
	}, s.handleSuggest)
}
