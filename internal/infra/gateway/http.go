package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	DefaultHTTPPath        = "/mcp"
	defaultShutdownTimeout = 5 * time.Second
)

// HTTPOptions configures the streamable HTTP listener.
type HTTPOptions struct {
	Addr string
	Path string
	// Token, when set, is required as a bearer credential on every request.
	Token        string
	JSONResponse bool
}

// HTTPHandler returns the streamable HTTP handler mounted at opts.Path.
func (g *Gateway) HTTPHandler(opts HTTPOptions) http.Handler {
	path := opts.Path
	if path == "" {
		path = DefaultHTTPPath
	}
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: opts.JSONResponse})

	mux := http.NewServeMux()
	mux.Handle(path, requireBearer(opts.Token, streamable))
	return mux
}

// RunStreamableHTTP serves concurrent sessions until ctx ends.
func (g *Gateway) RunStreamableHTTP(ctx context.Context, opts HTTPOptions) error {
	if strings.TrimSpace(opts.Addr) == "" {
		return errors.New("http address is required")
	}
	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           g.HTTPHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		g.logger.Info("gateway starting (streamable http transport)",
			zap.String("addr", opts.Addr),
			zap.String("path", pathOrDefault(opts.Path)),
			zap.Bool("auth", opts.Token != ""),
			zap.Int("tools", len(g.tools)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("streamable http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			g.logger.Error("streamable http shutdown error", zap.Error(err))
			return err
		}
		g.logger.Info("streamable http server stopped")
		return nil
	}
}

func requireBearer(token string, next http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			presented := strings.TrimSpace(header[7:])
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="databricks-mcp"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func pathOrDefault(path string) string {
	if path == "" {
		return DefaultHTTPPath
	}
	return path
}
