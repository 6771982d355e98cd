package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/logging"
	"github.com/nvandessel/verdant/internal/ratelimit"
	"github.com/nvandessel/verdant/internal/store"
)

// AuditFileName is the audit log written under the project's .verdant directory.
const AuditFileName = "audit.jsonl"

// Server wraps the MCP SDK server and exposes garden actions as tools.
type Server struct {
	server       *sdk.Server
	svc          *garden.Service
	root         string
	garden       string
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "verdant")
	Version string // Server version
	Root    string // Project root directory
	Garden  string // Garden used when a tool call names none

	Service *garden.Service
	Logger  *slog.Logger

	// DisableAudit skips writing <root>/.verdant/audit.jsonl.
	DisableAudit bool
}

// NewServer creates a new MCP server with the garden tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("garden service is required")
	}

	gardenID := cfg.Garden
	if gardenID == "" {
		gardenID = constants.DefaultGardenID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		svc:          cfg.Service,
		root:         cfg.Root,
		garden:       gardenID,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	if !cfg.DisableAudit {
		s.auditLogger = NewAuditLogger(filepath.Join(store.LocalVerdantPath(cfg.Root), AuditFileName))
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "garden", s.garden, "root", s.root)
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Connect serves over an arbitrary transport and returns the session. Used by tests.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// Close releases the audit log and the garden store.
func (s *Server) Close() error {
	auditErr := s.auditLogger.Close()
	if err := s.svc.Store().Close(); err != nil {
		return err
	}
	return auditErr
}

// gardenOrDefault returns id, or the server's garden when id is empty.
func (s *Server) gardenOrDefault(id string) string {
	if id == "" {
		return s.garden
	}
	return id
}
