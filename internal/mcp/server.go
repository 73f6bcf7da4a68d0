package mcp

import (
	"context"
	"log/slog"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DocumentService defines the tracker operations exposed as tools.
type DocumentService interface {
	Register(meta document.Metadata) (document.Record, error)
	HandleEvent(id string, ev document.Event) (document.Record, error)
	Get(id string) (document.Record, error)
	ListByStatus(statuses ...document.Status) []document.Record
	Delete(id string) error
	Summary() ingest.Summary
	History(ctx context.Context, id string, limit int) ([]activity.ActivityEntry, error)
	RecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Config contains server configuration.
type Config struct {
	Documents     DocumentService
	AuthEnabled   bool
	AuthToken     string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "uploadtrack",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local pipe; only HTTP is gated.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Documents)

	return server
}
