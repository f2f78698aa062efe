package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.getCostKPIsTool(),
		s.getCostSummaryTool(),
		s.getTicketCostTool(),
		s.listAnomaliesTool(),
	)
}

func (s *Server) getCostKPIsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_cost_kpis",
		mcplib.WithDescription("Get the current cost KPIs: today's spend, budget usage, month-end projection and recent anomalies"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetCostKPIs,
	}
}

func (s *Server) getCostSummaryTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_cost_summary",
		mcplib.WithDescription("Get aggregated token and cost totals, optionally narrowed to one agent or ticket"),
		mcplib.WithString("agent_id",
			mcplib.Description("Only count activity recorded by this agent"),
		),
		mcplib.WithString("ticket_id",
			mcplib.Description("Only count activity booked against this ticket"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetCostSummary,
	}
}

func (s *Server) getTicketCostTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_ticket_cost",
		mcplib.WithDescription("Get the spend booked against a single ticket by ticket ID"),
		mcplib.WithString("ticket_id",
			mcplib.Required(),
			mcplib.Description("The ticket ID to cost"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetTicketCost,
	}
}

func (s *Server) listAnomaliesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_anomalies",
		mcplib.WithDescription("List days with anomalous spend inside a trailing window"),
		mcplib.WithNumber("days",
			mcplib.Description("Window length in days; omit for the default window"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListAnomalies,
	}
}

func (s *Server) handleGetCostKPIs(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.KPIs == nil {
		return mcplib.NewToolResultError("kpi reader not configured"), nil
	}
	kpis, err := s.deps.KPIs.KPIs(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get kpis", err), nil
	}
	data, err := json.Marshal(kpis)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal kpis", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetCostSummary(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Costs == nil {
		return mcplib.NewToolResultError("cost summarizer not configured"), nil
	}
	args := req.GetArguments()
	var f activity.Filter
	if agentID, ok := args["agent_id"].(string); ok {
		f.AgentID = agentID
	}
	if ticketID, ok := args["ticket_id"].(string); ok {
		f.TicketID = ticketID
	}
	totals, err := s.deps.Costs.Summarize(ctx, f)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to summarize costs", err), nil
	}
	data, err := json.Marshal(totals)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal summary", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetTicketCost(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tickets == nil {
		return mcplib.NewToolResultError("ticket coster not configured"), nil
	}
	args := req.GetArguments()
	ticketID, ok := args["ticket_id"].(string)
	if !ok || ticketID == "" {
		return mcplib.NewToolResultError("ticket_id is required"), nil
	}
	totals, err := s.deps.Tickets.Stats(ctx, ticketID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to cost ticket %s", ticketID), err,
		), nil
	}
	data, err := json.Marshal(totals)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal ticket cost", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListAnomalies(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Anomalies == nil {
		return mcplib.NewToolResultError("anomaly detector not configured"), nil
	}
	args := req.GetArguments()
	days := 0
	if d, ok := args["days"].(float64); ok {
		days = int(d)
	}
	anomalies, err := s.deps.Anomalies.Detect(ctx, days)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to detect anomalies", err), nil
	}
	data, err := json.Marshal(anomalies)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal anomalies", err), nil
	}
	return toolResultJSON(string(data)), nil
}
