// Package testserver runs the full HTTP and MCP stack against an in-memory
// journal for end-to-end tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/uploadtrack/internal/config"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
	"github.com/rpggio/uploadtrack/internal/journal"
	"github.com/rpggio/uploadtrack/internal/mcp"
	"github.com/rpggio/uploadtrack/internal/sqlite"
	"github.com/rpggio/uploadtrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Token    string
	Service  *ingest.Service
	Journal  *journal.Journal
	Registry *document.Registry
}

// New starts a server guarded by token with the default upload limits.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	documentRepo := sqlite.NewDocumentRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	activitySvc := activity.NewService(activityRepo, nil)
	jrnl := journal.New(documentRepo, activitySvc, journal.DefaultBuffer, nil)

	registry := document.NewRegistry(document.WithLimits(document.Limits{
		MaxSizeBytes:  config.DefaultMaxSizeBytes,
		AcceptedTypes: config.DefaultAcceptedTypes,
	}))
	svc := ingest.NewService(registry, jrnl, activitySvc, documentRepo, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Documents:     svc,
		AuthEnabled:   true,
		AuthToken:     token,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(svc, transport.Options{
		Auth: transport.AuthMiddleware(token),
		MCP:  mcpHandler,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = jrnl.Run(ctx)
	}()

	t.Cleanup(func() {
		server.Close()
		cancel()
		wg.Wait()
		svc.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Token:    token,
		Service:  svc,
		Journal:  jrnl,
		Registry: registry,
	}
}

// Do sends an authenticated request.
func (ts *TestServer) Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ConnectMCP opens an MCP client session over streamable HTTP.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: ts.Token, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}
