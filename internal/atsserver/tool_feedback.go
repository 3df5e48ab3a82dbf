package atsserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
	"github.com/anatolykoptev/go_ats/internal/pipeline"
	"github.com/anatolykoptev/go_ats/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerFeedback(server *mcp.Server, mgr *pipeline.Manager) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ats_feedback",
		Description: "Generate actionable resume feedback for a job description. Returns suggestions grouped by severity (critical, warning, improvement) covering missing keywords and skills, weak or overused action verbs, unquantified bullets, formatting and contact issues, plus summary stats.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.ATSScoreInput) (*mcp.CallToolResult, ats.Feedback, error) {
		if err := toolutil.ValidateTexts(input.Resume, input.JobDescription); err != nil {
			return nil, ats.Feedback{}, err
		}
		fb, err := mgr.FeedbackIndependent(ctx, toolutil.BuildInput(input))
		if err != nil {
			slog.Warn("ats_feedback failed", slog.Any("error", err))
			return nil, ats.Feedback{}, fmt.Errorf("ats_feedback: %w", err)
		}
		if fb == nil {
			return nil, ats.Feedback{}, fmt.Errorf("ats_feedback: empty result")
		}
		slog.Info("ats_feedback done", slog.Int("suggestions", fb.Statistics.Total))
		return nil, *fb, nil
	})
}
