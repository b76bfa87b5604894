package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultModel is the generative model used when none is configured
const DefaultModel = "gemini-2.5-flash"

// ErrAuditFailed is returned when the generative service could not produce
// any response. It is the only error an audit surfaces after input checks.
var ErrAuditFailed = errors.New("audit failed")

// FailureNotice is the user-facing message for ErrAuditFailed
const FailureNotice = "Unable to complete audit. Please check the URL or try again later."

// GenerateRequest is a single call to the generative text service
type GenerateRequest struct {
	Model     string
	Prompt    string
	WebSearch bool
}

// GenerateResponse carries the raw text and optional grounding chunks
type GenerateResponse struct {
	Text      string
	Citations []CitationChunk
}

// Generator is the outbound AI service
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Recorder receives the outcome of every audit. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordAudit(url string, tier Tier, duration time.Duration)
	RecordFailure(url string, duration time.Duration)
}

// Report is a finished audit together with how it was produced
type Report struct {
	Result  AuditResult
	Outcome Outcome
}

// Auditor issues one generation request per audit and normalizes the answer
type Auditor struct {
	generator Generator
	model     string
	recorders []Recorder
	logger    *zap.Logger
}

// Option customizes an Auditor
type Option func(*Auditor)

// WithModel overrides the model identifier
func WithModel(model string) Option {
	return func(a *Auditor) {
		if model != "" {
			a.model = model
		}
	}
}

// WithRecorder adds an outcome recorder
func WithRecorder(r Recorder) Option {
	return func(a *Auditor) {
		if r != nil {
			a.recorders = append(a.recorders, r)
		}
	}
}

// NewAuditor creates a new Auditor instance
func NewAuditor(generator Generator, logger *zap.Logger, opts ...Option) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Auditor{
		generator: generator,
		model:     DefaultModel,
		logger:    logger.With(zap.String("component", "auditor")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the configured model identifier
func (a *Auditor) Model() string {
	return a.model
}

// Run audits the store named by raw user input
func (a *Auditor) Run(ctx context.Context, raw string) (*Report, error) {
	url, err := NormalizeURL(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := a.logger.With(zap.String("url", url))
	log.Info("audit requested", zap.String("model", a.model))

	resp, err := a.generator.Generate(ctx, GenerateRequest{
		Model:     a.model,
		Prompt:    BuildPrompt(url),
		WebSearch: true,
	})
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		elapsed := time.Since(start)
		log.Error("audit failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		for _, r := range a.recorders {
			r.RecordFailure(url, elapsed)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuditFailed, err)
	}

	result, outcome := Normalize(resp.Text, url, resp.Citations)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.Stringer("tier", outcome.Tier),
		zap.Float64("overallScore", result.OverallScore),
		zap.Int("sources", len(result.Sources)),
		zap.Duration("elapsed", elapsed),
	}
	if outcome.Tier == TierStructured {
		log.Info("audit completed", fields...)
	} else {
		log.Warn("audit response could not be structured",
			append(fields, zap.Strings("problems", outcome.Problems))...)
	}

	for _, r := range a.recorders {
		r.RecordAudit(url, outcome.Tier, elapsed)
	}

	return &Report{Result: result, Outcome: outcome}, nil
}
