package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"agentdeck://kpis",
			"Cost KPIs",
			mcplib.WithResourceDescription("Current cost KPIs for the workspace"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleKPIsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"agentdeck://pricing",
			"Pricing Table",
			mcplib.WithResourceDescription("Per-model token pricing used to cost activity"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePricingResource,
	)
}

func (s *Server) handleKPIsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.KPIs == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"kpi reader not configured"}`,
			},
		}, nil
	}
	kpis, err := s.deps.KPIs.KPIs(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(kpis)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePricingResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Prices == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"price lister not configured"}`,
			},
		}, nil
	}
	entries, err := s.deps.Prices.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
