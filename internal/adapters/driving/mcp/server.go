package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/normsqa/internal/logger"
)

const (
	serverName = "normsqa"

	// DefaultShutdownTimeout bounds how long in-flight HTTP requests may
	// finish after the context is cancelled. A question can sit in the LLM
	// for a while, so this is longer than a typical API server would use.
	DefaultShutdownTimeout = 30 * time.Second
)

// Options tunes the server. The zero value is usable.
type Options struct {
	// Version is reported to clients during initialisation.
	Version string

	// ShutdownTimeout overrides DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Server exposes one built index to MCP clients.
type Server struct {
	ports  *Ports
	opts   Options
	server *mcp.Server
}

// NewServer creates a server answering from ports.Index.
func NewServer(ports *Ports, opts ...Options) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{ports: ports, opts: o}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: o.Version},
		&mcp.ServerOptions{Instructions: s.instructions()},
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions is shown to the client model before any tool call.
func (s *Server) instructions() string {
	return fmt.Sprintf(
		"Answers questions about Kazakhstan construction norms (SN RK, SP RK) "+
			"from the PDF index at %s. Call list_documents to see which norms are indexed, "+
			"then ask with an optional scope set to one file name. Answers cite their "+
			"sources; index_status reports how many passages are stored.",
		s.ports.Index.Path(),
	)
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
// Nothing else may write to stdout while it runs.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving %s over stdio", s.ports.Index.Path())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled. Cancellation is a clean exit; connections still open after
// ShutdownTimeout are closed.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.serveHTTP(ctx, ln)
}

func (s *Server) serveHTTP(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Debug("mcp: shutting down %s", ln.Addr())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// Long-lived streams never drain on their own.
			logger.Warn("mcp: dropping open connections: %v", err)
			stopped <- httpServer.Close()
			return
		}
		stopped <- nil
	}()

	logger.Debug("mcp: serving %s on %s", s.ports.Index.Path(), ln.Addr())
	if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving mcp over http: %w", err)
	}

	if err := <-stopped; err != nil {
		return fmt.Errorf("shutting down mcp server: %w", err)
	}
	return nil
}
