package engine

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"
)

// Hook observes every stage of the canonical pipeline.
type Hook interface {
	BeforeStage(ctx context.Context, stage string, canvas *image.NRGBA)
	AfterStage(ctx context.Context, stage string, d time.Duration, err error)
}

// LoggingHook logs stage start and completion at debug level, and stage
// failures at error level.
type LoggingHook struct {
	logger *slog.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l *slog.Logger) *LoggingHook { return &LoggingHook{logger: l} }

// BeforeStage logs the stage start with the canvas size.
func (h *LoggingHook) BeforeStage(ctx context.Context, stage string, canvas *image.NRGBA) {
	b := canvas.Bounds()
	h.logger.DebugContext(ctx, "engine.stage.start",
		"stage", stage,
		"width", b.Dx(),
		"height", b.Dy(),
	)
}

// AfterStage logs the stage duration, or its error.
func (h *LoggingHook) AfterStage(ctx context.Context, stage string, d time.Duration, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "engine.stage.error",
			"stage", stage,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	h.logger.DebugContext(ctx, "engine.stage.done",
		"stage", stage,
		"duration", d,
	)
}

// StageStats accumulates per-stage counts and total durations across
// renders. It is safe for concurrent use.
type StageStats struct {
	mu     sync.Mutex
	counts map[string]int
	totals map[string]time.Duration
	errors map[string]int
}

// NewStageStats creates an empty collector.
func NewStageStats() *StageStats {
	return &StageStats{
		counts: make(map[string]int),
		totals: make(map[string]time.Duration),
		errors: make(map[string]int),
	}
}

// BeforeStage is a no-op; statistics are recorded when a stage ends.
func (s *StageStats) BeforeStage(context.Context, string, *image.NRGBA) {}

// AfterStage records the stage count, duration and error.
func (s *StageStats) AfterStage(_ context.Context, stage string, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[stage]++
	s.totals[stage] += d
	if err != nil {
		s.errors[stage]++
	}
}

// StageSummary is a snapshot of one stage's statistics.
type StageSummary struct {
	Runs   int           `json:"runs"`
	Errors int           `json:"errors"`
	Total  time.Duration `json:"total_ns"`
}

// Snapshot returns a copy of the collected statistics keyed by stage name.
func (s *StageStats) Snapshot() map[string]StageSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]StageSummary, len(s.counts))
	for name, n := range s.counts {
		out[name] = StageSummary{Runs: n, Errors: s.errors[name], Total: s.totals[name]}
	}
	return out
}
