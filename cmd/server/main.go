package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rpggio/uploadtrack/internal/config"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
	"github.com/rpggio/uploadtrack/internal/journal"
	"github.com/rpggio/uploadtrack/internal/mcp"
	"github.com/rpggio/uploadtrack/internal/repository"
	"github.com/rpggio/uploadtrack/internal/sqlite"
	"github.com/rpggio/uploadtrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("UPLOADTRACK_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	var (
		archive  repository.DocumentRepository
		history  ingest.HistoryReader
		recorder ingest.Recorder
		jrnl     *journal.Journal
	)
	if cfg.DB.Path != "" {
		if err := ensureDBDir(cfg.DB.Path); err != nil {
			return fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		documentRepo := sqlite.NewDocumentRepository(db)
		activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
		archive = documentRepo
		history = activitySvc
		jrnl = journal.New(documentRepo, activitySvc, cfg.Journal.Buffer, logger)
		recorder = jrnl
	} else {
		logger.Warn("journal disabled, history will not be kept")
	}

	registry := document.NewRegistry(
		document.WithLimits(document.Limits{
			MaxSizeBytes:  cfg.Uploads.MaxSizeBytes,
			AcceptedTypes: cfg.Uploads.AcceptedTypes,
		}),
		document.WithLogger(logger),
	)
	svc := ingest.NewService(registry, recorder, history, archive, logger)
	defer svc.Close()

	mcpServer := mcp.NewServer(mcp.Config{
		Documents:     svc,
		AuthEnabled:   cfg.Auth.Enabled,
		AuthToken:     cfg.Auth.Token,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The journal outlives the servers so late updates are still flushed.
	journalCtx, stopJournal := context.WithCancel(context.Background())
	var journalGroup errgroup.Group
	if jrnl != nil {
		journalGroup.Go(func() error { return jrnl.Run(journalCtx) })
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Transport.Mode == "stdio" {
		runStdioMode(gctx, g, stop, logger, mcpServer)
	} else {
		runHTTPMode(gctx, g, logger, cfg, svc, mcpServer)
	}

	err := g.Wait()
	stopJournal()
	if jerr := journalGroup.Wait(); jerr != nil {
		err = errors.Join(err, jerr)
	}
	if jrnl != nil && jrnl.Dropped() > 0 {
		logger.Warn("journal dropped writes", "count", jrnl.Dropped())
	}
	return err
}

func runStdioMode(ctx context.Context, g *errgroup.Group, stop context.CancelFunc, logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")
	g.Go(func() error {
		// Run blocks until stdin closes or ctx is canceled.
		defer stop()
		if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	})
}

func runHTTPMode(ctx context.Context, g *errgroup.Group, logger *slog.Logger, cfg config.Config, svc *ingest.Service, mcpServer *sdkmcp.Server) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	opts := transport.Options{MCP: mcpHandler, Logger: logger}
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(cfg.Auth.Token)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := newHTTPServer(ctx, addr, transport.NewServer(svc, opts))

	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
}

// newHTTPServer derives request contexts from ctx so open streams end when
// shutdown begins. Shutdown alone does not cancel active requests.
func newHTTPServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
