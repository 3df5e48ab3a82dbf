package atsserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/pipeline"
	"github.com/anatolykoptev/go_ats/internal/toolutil"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerScore(server *mcp.Server, mgr *pipeline.Manager) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ats_score",
		Description: "Score a resume against a job description for ATS compatibility. Returns a 0-100 score with tier, per-dimension breakdown (keyword match, skills alignment, formatting, impact metrics, readability), matched and missing keywords, and up to four prioritized recommendations. Accepts plain text or HTML; optional file metadata (format, pages, columns, tables, images) refines the formatting check.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.ATSScoreInput) (*mcp.CallToolResult, engine.ATSScoreOutput, error) {
		if err := toolutil.ValidateTexts(input.Resume, input.JobDescription); err != nil {
			return nil, engine.ATSScoreOutput{}, err
		}
		id := uuid.NewString()
		start := time.Now()

		res, err := mgr.ScoreIndependent(ctx, toolutil.BuildInput(input))
		if err != nil {
			slog.Warn("ats_score failed", slog.String("request_id", id), slog.Any("error", err))
			return nil, engine.ATSScoreOutput{}, fmt.Errorf("ats_score: %w", err)
		}
		out := toolutil.FlattenScore(id, res, time.Since(start))
		slog.Info("ats_score done",
			slog.String("request_id", id),
			slog.Int("score", out.DisplayScore),
			slog.String("tier", out.Tier),
			slog.Int64("ms", out.DurationMs),
		)
		return nil, out, nil
	})
}
