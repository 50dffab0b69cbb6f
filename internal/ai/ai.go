package ai

import (
	"context"
	"errors"
	"fmt"
)

// ServiceName identifies which tier produced a result.
type ServiceName string

const (
	ServiceOpenAI ServiceName = "openai"
	ServiceGemini ServiceName = "gemini"
	ServiceMock   ServiceName = "mock"
)

// AnalysisResult is the canonical resume analysis shape. All scores are
// clamped to [0,100] and recommendations are capped at MaxRecommendations.
type AnalysisResult struct {
	OverallScore        int      `json:"overallScore" mapstructure:"overallScore"`
	ATSCompatibility    int      `json:"atsCompatibility" mapstructure:"atsCompatibility"`
	KeywordOptimization int      `json:"keywordOptimization" mapstructure:"keywordOptimization"`
	ExperienceRelevance int      `json:"experienceRelevance" mapstructure:"experienceRelevance"`
	Recommendations     []string `json:"recommendations" mapstructure:"recommendations"`
}

// MaxRecommendations bounds the recommendations list of an AnalysisResult.
const MaxRecommendations = 7

// JobMatch is a single synthesized or provider-reported job posting match.
// Batch order equals relevance as reported by the source.
type JobMatch struct {
	ID         string `json:"id" mapstructure:"id"`
	Title      string `json:"title" mapstructure:"title"`
	Company    string `json:"company" mapstructure:"company"`
	Location   string `json:"location" mapstructure:"location"`
	Salary     string `json:"salary" mapstructure:"salary"`
	PostedDate string `json:"postedDate" mapstructure:"postedDate"`
	MatchScore int    `json:"matchScore" mapstructure:"matchScore"`
}

// ProviderStatus is the outcome of a probe. It is consumed immediately and
// never persisted.
type ProviderStatus struct {
	Available bool   `json:"isValid"`
	Message   string `json:"message"`
}

// Provider wraps a single AI backend. Implementations issue exactly one
// outbound call per invocation and never fall back themselves; routing
// decisions belong to the Service.
type Provider interface {
	Name() ServiceName

	// Probe issues a minimal low-cost request and reports health.
	Probe(ctx context.Context) ProviderStatus

	// Analyze and Match return the backend's raw textual output.
	Analyze(ctx context.Context, resumeText, jobDescription string) (string, error)
	Match(ctx context.Context, resumeText string) (string, error)

	// ExtractText submits a document for transcription. Backends without
	// document understanding return ErrUnsupported.
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// FailureReason categorizes why a provider is unusable.
type FailureReason string

const (
	ReasonKeyMissing    FailureReason = "key-missing"
	ReasonQuotaExceeded FailureReason = "quota-exceeded"
	ReasonUnknown       FailureReason = "unknown-error"
)

// UnavailableError marks a provider call that failed for transport, auth or
// quota reasons. The Service recovers it via fallback.
type UnavailableError struct {
	Provider ServiceName
	Reason   FailureReason
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError for the given provider.
func Unavailable(provider ServiceName, reason FailureReason, err error) error {
	return &UnavailableError{Provider: provider, Reason: reason, Err: err}
}

// MalformedResponseError is returned by the normalizer when no recoverable
// structure exists in the raw text. Raw is kept for diagnostics.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

var (
	// ErrUnsupported marks an operation a backend does not offer.
	ErrUnsupported = errors.New("operation not supported by provider")

	// ErrEmptyResponse marks a call that returned no usable content.
	ErrEmptyResponse = errors.New("provider returned empty response")

	// ErrNoInput marks missing caller input. It surfaces directly and is
	// never retried.
	ErrNoInput = errors.New("no input provided")
)
