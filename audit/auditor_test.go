package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeGenerator struct {
	mu       sync.Mutex
	requests []GenerateRequest
	resp     *GenerateResponse
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	tiers    []Tier
	failures []string
}

func (r *fakeRecorder) RecordAudit(_ string, tier Tier, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append(r.tiers, tier)
}

func (r *fakeRecorder) RecordFailure(url string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, url)
}

func TestAuditorRun(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{resp: &GenerateResponse{
		Text: fence(mustJSON(t, sampleResult())),
		Citations: []CitationChunk{
			{Web: &WebCitation{URI: "https://reviews.example/mystore", Title: "Reviews"}},
		},
	}}
	rec := &fakeRecorder{}
	auditor := NewAuditor(gen, zaptest.NewLogger(t), WithModel("gemini-test"), WithRecorder(rec))

	report, err := auditor.Run(context.Background(), "mystore")
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "gemini-test", req.Model)
	assert.True(t, req.WebSearch)
	assert.Equal(t, BuildPrompt("https://mystore"), req.Prompt)

	assert.Equal(t, TierStructured, report.Outcome.Tier)
	assert.Equal(t, "https://mystore", report.Result.URL)
	assert.Equal(t, []GroundingSource{{Title: "Reviews", URI: "https://reviews.example/mystore"}}, report.Result.Sources)
	assert.Equal(t, []Tier{TierStructured}, rec.tiers)
	assert.Empty(t, rec.failures)
}

func TestAuditorRunFallbackIsNotAnError(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{resp: &GenerateResponse{Text: "I could not find that store."}}
	rec := &fakeRecorder{}
	auditor := NewAuditor(gen, nil, WithRecorder(rec))

	report, err := auditor.Run(context.Background(), "https://gone.example")
	require.NoError(t, err)

	assert.Equal(t, TierUnparsed, report.Outcome.Tier)
	assert.Equal(t, "I could not find that store....", report.Result.Summary)
	assert.Equal(t, []Tier{TierUnparsed}, rec.tiers)
	assert.Equal(t, DefaultModel, auditor.Model())
}

func TestAuditorRunGeneratorFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("503 service unavailable")
	gen := &fakeGenerator{err: cause}
	rec := &fakeRecorder{}
	auditor := NewAuditor(gen, zaptest.NewLogger(t), WithRecorder(rec))

	report, err := auditor.Run(context.Background(), "mystore.com")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrAuditFailed)
	assert.Contains(t, err.Error(), "503 service unavailable")
	assert.Len(t, gen.requests, 1)
	assert.Equal(t, []string{"https://mystore.com"}, rec.failures)
	assert.Empty(t, rec.tiers)
}

func TestAuditorRunNilResponse(t *testing.T) {
	t.Parallel()

	auditor := NewAuditor(&fakeGenerator{}, nil)

	_, err := auditor.Run(context.Background(), "mystore.com")
	assert.ErrorIs(t, err, ErrAuditFailed)
}

func TestAuditorRunInvalidInput(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	auditor := NewAuditor(gen, nil)

	_, err := auditor.Run(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.NotErrorIs(t, err, ErrAuditFailed)
	assert.Empty(t, gen.requests, "no call may be issued for invalid input")
}
