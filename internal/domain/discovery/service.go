package discovery

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/synergy-circle/pkg/errors"
	"github.com/yanqian/synergy-circle/pkg/metrics"
	"github.com/yanqian/synergy-circle/pkg/util"
)

// Error codes surfaced by the discovery domain.
const (
	CodeInvalidInput      = "invalid_input"
	CodeProviderFailure   = "provider_failure"
	CodeMalformedResponse = "malformed_response"
	CodeNotFound          = "not_found"
	CodeHistory           = "history_error"
)

const outcomeSuccess = "success"

// Service exposes Synergy Circle discovery.
type Service interface {
	Analyze(ctx context.Context, req Request) (AnalysisResult, error)
	Get(ctx context.Context, id string) (Record, error)
	Recent(ctx context.Context, limit int) ([]RecordSummary, error)
}

// Generator is the grounded LLM the service depends on.
type Generator interface {
	GenerateContent(ctx context.Context, req gemini.Request) (gemini.Response, error)
}

type service struct {
	cfg       Config
	generator Generator
	history   HistoryStore
	metrics   *metrics.Collector
	now       util.Clock
	logger    *slog.Logger
}

// NewService is a wire provider for the discovery domain. history and collector may be nil.
func NewService(cfg Config, generator Generator, history HistoryStore, collector *metrics.Collector, logger *slog.Logger) Service {
	return newService(cfg, generator, history, collector, nil, logger)
}

func newService(cfg Config, generator Generator, history HistoryStore, collector *metrics.Collector, now util.Clock, logger *slog.Logger) *service {
	return &service{
		cfg:       cfg,
		generator: generator,
		history:   history,
		metrics:   collector,
		now:       now.OrNow(),
		logger:    logger.With("component", "discovery.service"),
	}
}

func (s *service) Analyze(ctx context.Context, req Request) (AnalysisResult, error) {
	started := time.Now()
	profileURL := strings.TrimSpace(req.ProfileURL)
	if profileURL == "" {
		s.metrics.ObserveAnalysis(CodeInvalidInput, time.Since(started), 0)
		return AnalysisResult{}, apperrors.New(CodeInvalidInput, "profile url cannot be empty")
	}

	resp, err := s.generator.GenerateContent(ctx, gemini.Request{
		Model:            s.cfg.Model,
		Prompt:           buildPrompt(profileURL, s.cfg.TargetSuggestions),
		Temperature:      s.cfg.Temperature,
		GoogleSearch:     true,
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
	})
	if err != nil {
		return AnalysisResult{}, s.fail(CodeProviderFailure, profileURL, started, err)
	}

	wire, err := decodeAnalysis(resp.Text)
	if err != nil {
		s.logger.Debug("unparseable provider response", "text", resp.Text)
		return AnalysisResult{}, s.fail(CodeMalformedResponse, profileURL, started, err)
	}

	raw := toProfiles(wire.Suggestions)
	kept := FilterSuggestions(raw)
	dropped := len(raw) - len(kept)
	suggestions := make([]SocialProfile, 0, len(kept))
	for _, p := range kept {
		suggestions = append(suggestions, classify(p))
	}

	result := AnalysisResult{
		OriginalProfile:  wire.OriginalProfile,
		Suggestions:      suggestions,
		GroundingSources: GroundingSources(resp.GroundingChunks),
	}
	if !resp.Usage.IsZero() {
		usage := resp.Usage
		result.TokenUsage = &usage
	}

	if dropped > 0 {
		s.logger.Warn("dropped suggestions without absolute url", "profile_url", profileURL, "dropped", dropped)
	}
	s.record(ctx, profileURL, &result)

	elapsed := time.Since(started)
	s.metrics.ObserveAnalysis(outcomeSuccess, elapsed, dropped)
	s.logger.Info("analysis completed",
		"profile_url", profileURL,
		"suggestions", len(result.Suggestions),
		"sources", len(result.GroundingSources),
		"total_tokens", resp.Usage.TotalTokens,
		"latency_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

func (s *service) fail(code, profileURL string, started time.Time, cause error) error {
	s.metrics.ObserveAnalysis(code, time.Since(started), 0)
	attrs := []any{"kind", code, "profile_url", profileURL, "error", cause}
	if status := gemini.StatusCode(cause); status != 0 {
		attrs = append(attrs, "status", status)
	}
	s.logger.Error("analysis failed", attrs...)
	return apperrors.Wrap(code, s.cfg.FailureMessage, cause)
}

func (s *service) record(ctx context.Context, profileURL string, result *AnalysisResult) {
	if s.history == nil {
		return
	}
	createdAt := s.now()
	rec := Record{
		ID:         uuid.NewString(),
		ProfileURL: profileURL,
		CreatedAt:  createdAt,
		Result:     *result,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to record analysis", "profile_url", profileURL, "error", err)
		return
	}
	result.ID = rec.ID
	result.CreatedAt = &createdAt
}

func (s *service) Get(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if s.history == nil || id == "" {
		return Record{}, apperrors.New(CodeNotFound, "analysis not found")
	}
	rec, ok, err := s.history.Get(ctx, id)
	if err != nil {
		return Record{}, apperrors.Wrap(CodeHistory, "failed to load analysis", err)
	}
	if !ok {
		return Record{}, apperrors.New(CodeNotFound, "analysis not found")
	}
	createdAt := rec.CreatedAt
	rec.Result.ID = rec.ID
	rec.Result.CreatedAt = &createdAt
	return rec, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]RecordSummary, error) {
	if s.history == nil {
		return []RecordSummary{}, nil
	}
	if limit <= 0 || (s.cfg.RecentLimit > 0 && limit > s.cfg.RecentLimit) {
		limit = s.cfg.RecentLimit
	}
	if limit <= 0 {
		limit = 20
	}
	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(CodeHistory, "failed to list analyses", err)
	}
	out := make([]RecordSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.summary())
	}
	return out, nil
}
