package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai"
)

// stubProvider counts calls and returns scripted responses.
type stubProvider struct {
	name ai.ServiceName

	analyzeRaw string
	matchRaw   string
	extractRaw string
	err        error
	probe      ai.ProviderStatus

	analyzeCalls int
	matchCalls   int
	extractCalls int
	probeCalls   int
}

func (s *stubProvider) Name() ai.ServiceName { return s.name }

func (s *stubProvider) Probe(context.Context) ai.ProviderStatus {
	s.probeCalls++
	return s.probe
}

func (s *stubProvider) Analyze(context.Context, string, string) (string, error) {
	s.analyzeCalls++
	return s.analyzeRaw, s.err
}

func (s *stubProvider) Match(context.Context, string) (string, error) {
	s.matchCalls++
	return s.matchRaw, s.err
}

func (s *stubProvider) ExtractText(context.Context, []byte, string) (string, error) {
	s.extractCalls++
	return s.extractRaw, s.err
}

const goodAnalysis = `{"overallScore": 80, "atsCompatibility": 75, "keywordOptimization": 70, "experienceRelevance": 85, "recommendations": ["Add metrics"]}`

const goodMatches = `[{"title": "Go Developer", "company": "Acme", "location": "Remote", "salary": "$120k", "postedDate": "2026-08-20", "matchScore": 90}]`

func newService(providers ...ai.Provider) (*Service, *ai.Tracker) {
	tracker := ai.NewTracker()
	return New(providers, tracker, zap.NewNop(), time.Second), tracker
}

func TestAnalyzeUsesPrimaryProvider(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, analyzeRaw: goodAnalysis}
	secondary := &stubProvider{name: ai.ServiceGemini, analyzeRaw: goodAnalysis}
	svc, _ := newService(primary, secondary)

	out := svc.Analyze(context.Background(), "resume text", "")

	assert.Equal(t, ai.ServiceOpenAI, out.ServiceUsed)
	assert.Empty(t, out.Notice)
	assert.Equal(t, 80, out.Result.OverallScore)
	assert.Equal(t, 1, primary.analyzeCalls)
	assert.Zero(t, secondary.analyzeCalls)
}

func TestAnalyzeFallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, err: ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, errors.New("boom"))}
	secondary := &stubProvider{name: ai.ServiceGemini, analyzeRaw: goodAnalysis}
	svc, tracker := newService(primary, secondary)

	out := svc.Analyze(context.Background(), "resume text", "")

	assert.Equal(t, ai.ServiceGemini, out.ServiceUsed)
	assert.False(t, tracker.IsAvailable(ai.ServiceOpenAI))
	assert.True(t, tracker.IsAvailable(ai.ServiceGemini))
}

func TestAnalyzeAllProvidersFailUsesMock(t *testing.T) {
	failure := ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, errors.New("transport down"))
	primary := &stubProvider{name: ai.ServiceOpenAI, err: failure}
	secondary := &stubProvider{name: ai.ServiceGemini, err: failure}
	svc, _ := newService(primary, secondary)

	out := svc.Analyze(context.Background(), "resume text", "job description")

	assert.Equal(t, ai.ServiceMock, out.ServiceUsed)
	assert.NotEmpty(t, out.Notice)
	require.NotNil(t, out.Result)
	assert.GreaterOrEqual(t, out.Result.OverallScore, 0)
	assert.LessOrEqual(t, out.Result.OverallScore, 100)
}

func TestMalformedResponseTriggersFallback(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, analyzeRaw: "sorry, I cannot help with that"}
	secondary := &stubProvider{name: ai.ServiceGemini, analyzeRaw: goodAnalysis}
	svc, tracker := newService(primary, secondary)

	out := svc.Analyze(context.Background(), "resume text", "")

	assert.Equal(t, ai.ServiceGemini, out.ServiceUsed)
	assert.False(t, tracker.IsAvailable(ai.ServiceOpenAI))
}

func TestDownedProviderSkippedOnNextTask(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, err: ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, errors.New("boom"))}
	secondary := &stubProvider{name: ai.ServiceGemini, analyzeRaw: goodAnalysis, matchRaw: goodMatches}
	svc, _ := newService(primary, secondary)

	svc.Analyze(context.Background(), "resume text", "")
	require.Equal(t, 1, primary.analyzeCalls)

	// Second task must not touch the downed primary at all.
	out := svc.Match(context.Background(), "resume text")

	assert.Equal(t, ai.ServiceGemini, out.ServiceUsed)
	assert.Zero(t, primary.matchCalls)
}

func TestSuccessfulProbeRestoresProvider(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, analyzeRaw: goodAnalysis, probe: ai.ProviderStatus{Available: true, Message: "ok"}}
	svc, tracker := newService(primary)

	tracker.MarkDown(ai.ServiceOpenAI)
	svc.Status(context.Background())

	out := svc.Analyze(context.Background(), "resume text", "")
	assert.Equal(t, ai.ServiceOpenAI, out.ServiceUsed)
}

func TestEmptyResumeGoesStraightToMock(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, analyzeRaw: goodAnalysis}
	svc, _ := newService(primary)

	out := svc.Analyze(context.Background(), "", "")

	assert.Equal(t, ai.ServiceMock, out.ServiceUsed)
	assert.NotEmpty(t, out.Notice)
	assert.Zero(t, primary.analyzeCalls)
	require.NotNil(t, out.Result)
	assert.LessOrEqual(t, len(out.Result.Recommendations), 5)
}

func TestMatchScoresBoundedRegardlessOfTier(t *testing.T) {
	inflated := `[{"title": "CTO", "company": "Acme", "matchScore": 900}]`
	primary := &stubProvider{name: ai.ServiceOpenAI, matchRaw: inflated}
	svc, _ := newService(primary)

	out := svc.Match(context.Background(), "resume text")

	require.Len(t, out.Results, 1)
	assert.Equal(t, 100, out.Results[0].MatchScore)
}

func TestExtractTextEmptyFileIsCallerError(t *testing.T) {
	svc, _ := newService(&stubProvider{name: ai.ServiceOpenAI})

	_, err := svc.ExtractText(context.Background(), nil, "application/pdf")
	assert.ErrorIs(t, err, ai.ErrNoInput)
}

func TestExtractTextUnsupportedProviderDoesNotGoDown(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, err: ai.ErrUnsupported}
	secondary := &stubProvider{name: ai.ServiceGemini, extractRaw: "extracted resume text"}
	svc, tracker := newService(primary, secondary)

	out, err := svc.ExtractText(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, ai.ServiceGemini, out.ServiceUsed)
	assert.Equal(t, "extracted resume text", out.Text)
	assert.True(t, tracker.IsAvailable(ai.ServiceOpenAI), "unsupported op must not mark the provider down")
}

func TestExtractTextFallsBackToMock(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, err: ai.ErrUnsupported}
	secondary := &stubProvider{name: ai.ServiceGemini, err: ai.Unavailable(ai.ServiceGemini, ai.ReasonQuotaExceeded, errors.New("quota"))}
	svc, _ := newService(primary, secondary)

	out, err := svc.ExtractText(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, ai.ServiceMock, out.ServiceUsed)
	assert.NotEmpty(t, out.Notice)
	assert.NotEmpty(t, out.Text)
}

func TestStatusReportsPreferredProvider(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, probe: ai.ProviderStatus{Available: false, Message: "key missing"}}
	secondary := &stubProvider{name: ai.ServiceGemini, probe: ai.ProviderStatus{Available: true, Message: "ok"}}
	svc, _ := newService(primary, secondary)

	status := svc.Status(context.Background())

	assert.Equal(t, ai.ServiceGemini, status.Preferred)
	assert.False(t, status.Providers[ai.ServiceOpenAI].Available)
	assert.True(t, status.Providers[ai.ServiceGemini].Available)
}

func TestStatusPreferredIsIdempotentWithoutStateChange(t *testing.T) {
	primary := &stubProvider{name: ai.ServiceOpenAI, probe: ai.ProviderStatus{Available: false, Message: "down"}}
	secondary := &stubProvider{name: ai.ServiceGemini, probe: ai.ProviderStatus{Available: false, Message: "down"}}
	svc, _ := newService(primary, secondary)

	first := svc.Status(context.Background())
	second := svc.Status(context.Background())

	assert.Equal(t, first.Preferred, second.Preferred)
	assert.Equal(t, ai.ServiceMock, first.Preferred)
}
