package transport

import (
	"context"
	"iter"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
	"github.com/rpggio/uploadtrack/internal/repository"
)

// DocumentService is the tracker surface served over HTTP.
type DocumentService interface {
	Register(meta document.Metadata) (document.Record, error)
	HandleEvent(id string, ev document.Event) (document.Record, error)
	Get(id string) (document.Record, error)
	List() iter.Seq[document.Record]
	ListByStatus(statuses ...document.Status) []document.Record
	Delete(id string) error
	Watch(fn func(ingest.Change)) func()
	Summary() ingest.Summary
	History(ctx context.Context, id string, limit int) ([]activity.ActivityEntry, error)
	RecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	Archive(ctx context.Context, opts repository.ListDocumentsOptions) ([]document.Record, error)
}

// Options configures the HTTP router.
type Options struct {
	// Auth wraps every route except /health. Nil disables it.
	Auth func(http.Handler) http.Handler
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	docs   DocumentService
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(docs DocumentService, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{docs: docs, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", srv.handleRegister)
			r.Get("/", srv.handleList)
			r.Get("/summary", srv.handleSummary)
			r.Get("/stream", srv.handleStream)
			r.Get("/{id}", srv.handleGet)
			r.Delete("/{id}", srv.handleDelete)
			r.Post("/{id}/events", srv.handleEvent)
			r.Get("/{id}/history", srv.handleHistory)
		})
		r.Get("/api/archive", srv.handleArchive)
		r.Get("/api/activity", srv.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
