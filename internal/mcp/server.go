package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Laura-lc/AllenSDK/internal/cache"
	"github.com/Laura-lc/AllenSDK/internal/catalog"
	"github.com/Laura-lc/AllenSDK/internal/ratelimit"
)

// Server wraps the MCP SDK server and exposes the dataset query tools.
type Server struct {
	server       *sdk.Server
	cache        *cache.ProjectCache
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // server name (e.g., "vbcache")
	Version string // server version
	// Cache is the project cache to serve. It is borrowed: the caller
	// closes it.
	Cache  *cache.ProjectCache
	Logger *slog.Logger
}

// NewServer creates a new MCP server over a project cache.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("project cache is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	s := &Server{
		server:       mcpServer,
		cache:        cfg.Cache,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(catalog.StateDir(cfg.Cache.Config().CacheRoot())),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.auditLogger.Close()

	return err
}

// Close releases the audit log. The project cache stays open for its owner.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
