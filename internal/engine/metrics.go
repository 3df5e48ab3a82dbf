package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ScoreRequests    atomic.Int64
	FeedbackRequests atomic.Int64
	Computations     atomic.Int64
	Aborted          atomic.Int64
	Timeouts         atomic.Int64
	WorkerCrashes    atomic.Int64
	DetectorFailures atomic.Int64
	DebounceSkips    atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"score_requests":    metrics.ScoreRequests.Load(),
		"feedback_requests": metrics.FeedbackRequests.Load(),
		"computations":      metrics.Computations.Load(),
		"aborted":           metrics.Aborted.Load(),
		"timeouts":          metrics.Timeouts.Load(),
		"worker_crashes":    metrics.WorkerCrashes.Load(),
		"detector_failures": metrics.DetectorFailures.Load(),
		"debounce_skips":    metrics.DebounceSkips.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"score_requests", "feedback_requests", "computations",
		"aborted", "timeouts", "worker_crashes",
		"detector_failures", "debounce_skips",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the ats and pipeline packages.
func IncrScoreRequests()    { metrics.ScoreRequests.Add(1) }
func IncrFeedbackRequests() { metrics.FeedbackRequests.Add(1) }
func IncrComputations()     { metrics.Computations.Add(1) }
func IncrAborted()          { metrics.Aborted.Add(1) }
func IncrTimeouts()         { metrics.Timeouts.Add(1) }
func IncrWorkerCrashes()    { metrics.WorkerCrashes.Add(1) }
func IncrDetectorFailures() { metrics.DetectorFailures.Add(1) }
func IncrDebounceSkips()    { metrics.DebounceSkips.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if threshold > 0 && elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
