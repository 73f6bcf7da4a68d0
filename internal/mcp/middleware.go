package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/uploadtrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// authMiddleware checks a static bearer token on every non-protocol request.
func authMiddleware(token string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("%w: missing headers", transport.ErrUnauthorized)
			}
			if !transport.ValidBearer(extra.Header.Get("Authorization"), token) {
				return nil, fmt.Errorf("%w: invalid bearer token", transport.ErrUnauthorized)
			}
			return next(ctx, method, req)
		}
	}
}
