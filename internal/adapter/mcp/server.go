// Package mcp exposes AgentDeck's cost analytics to AI assistants over the
// Model Context Protocol. The server runs as a sidecar on its own listener
// so MCP traffic never shares the REST port.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
)

// KPIReader produces the dashboard KPI payload.
type KPIReader interface {
	KPIs(ctx context.Context) (*cost.KPIs, error)
}

// CostSummarizer aggregates activity spend matching a filter.
type CostSummarizer interface {
	Summarize(ctx context.Context, f activity.Filter) (*cost.Totals, error)
}

// TicketCoster reports the spend booked against a single ticket.
type TicketCoster interface {
	Stats(ctx context.Context, id string) (*cost.Totals, error)
}

// AnomalyDetector flags anomalous spend days in a trailing window.
type AnomalyDetector interface {
	Detect(ctx context.Context, days int) ([]cost.Anomaly, error)
}

// PriceLister lists the configured per-model pricing table.
type PriceLister interface {
	List(ctx context.Context) ([]pricing.Entry, error)
}

// ServerConfig configures the MCP sidecar. An empty APIKey disables
// authentication.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps carries the read services the tools and resources draw on.
// A nil entry degrades its tools to error results instead of panicking,
// so a partially wired server stays usable.
type ServerDeps struct {
	KPIs      KPIReader
	Costs     CostSummarizer
	Tickets   TicketCoster
	Anomalies AnomalyDetector
	Prices    PriceLister
}

// Server hosts the MCP tool and resource surface over SSE.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
}

// NewServer builds the server and registers every tool and resource.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:       cfg,
		deps:      deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server, mainly for tests and
// for mounting on an existing mux.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start binds the configured address and returns once the listener is up.
// Transport errors after that are logged, not returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           AuthMiddleware(s.cfg.APIKey, mcpserver.NewSSEServer(s.mcpServer)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("mcp server listening", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the listener down, letting in-flight requests finish until
// ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}
