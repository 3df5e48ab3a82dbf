package atsserver

import (
	"context"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers the ATS tools on the given MCP server:
// ats_score, ats_feedback, ats_metrics.
func RegisterTools(server *mcp.Server, mgr *pipeline.Manager) {
	registerScore(server, mgr)
	registerFeedback(server, mgr)
	registerMetrics(server)
}

func registerMetrics(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ats_metrics",
		Description: "Report scoring pipeline counters: requests, computations, cache hits and misses, timeouts, aborted requests, worker crashes, detector failures.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.ATSMetricsInput) (*mcp.CallToolResult, engine.ATSMetricsOutput, error) {
		return nil, engine.ATSMetricsOutput{Counters: engine.GetMetrics()}, nil
	})
}
