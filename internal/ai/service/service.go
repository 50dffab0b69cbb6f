// Package service orchestrates the AI fallback chain: providers are tried
// strictly in the configured order, gated by cached availability flags, and
// the mock generator terminates every chain. A best-effort structured result
// is always returned; provider failures never reach the caller as errors.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai"
	"github.com/praveenlokku/EasyApply/internal/ai/mock"
	"github.com/praveenlokku/EasyApply/internal/ai/normalize"
)

const defaultCallTimeout = 45 * time.Second

// FallbackNotice accompanies every mock-served result. Silent degradation
// would mislead callers about data quality.
const FallbackNotice = "AI providers are currently unavailable; results were generated by the built-in fallback."

// Analysis is the uniform analyze result shape regardless of source tier.
type Analysis struct {
	Result      *ai.AnalysisResult `json:"result"`
	ServiceUsed ai.ServiceName     `json:"serviceUsed"`
	Notice      string             `json:"notice,omitempty"`
}

// Matches is the uniform match result shape.
type Matches struct {
	Results     []ai.JobMatch  `json:"results"`
	ServiceUsed ai.ServiceName `json:"serviceUsed"`
	Notice      string         `json:"notice,omitempty"`
}

// Extraction is the uniform text-extraction result shape.
type Extraction struct {
	Text        string         `json:"text"`
	ServiceUsed ai.ServiceName `json:"serviceUsed"`
	Notice      string         `json:"notice,omitempty"`
}

// Status reports per-provider health and the currently preferred tier.
type Status struct {
	Providers map[ai.ServiceName]ai.ProviderStatus `json:"providers"`
	Preferred ai.ServiceName                       `json:"preferred"`
}

// Service routes tasks through the provider chain.
type Service struct {
	providers   []ai.Provider
	tracker     *ai.Tracker
	mock        *mock.Generator
	logger      *zap.Logger
	callTimeout time.Duration
}

// New builds a Service. Providers are tried in the given order; the order is
// configuration, not inference.
func New(providers []ai.Provider, tracker *ai.Tracker, logger *zap.Logger, callTimeout time.Duration) *Service {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	return &Service{
		providers:   providers,
		tracker:     tracker,
		mock:        mock.NewGenerator(),
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// Analyze scores a resume, optionally against a job description. Empty
// resume text goes straight to the fallback tier.
func (s *Service) Analyze(ctx context.Context, resumeText, jobDescription string) *Analysis {
	if strings.TrimSpace(resumeText) != "" {
		for _, p := range s.providers {
			raw, ok := s.call(ctx, p, "analyze", func(cctx context.Context) (string, error) {
				return p.Analyze(cctx, resumeText, jobDescription)
			})
			if !ok {
				continue
			}

			result, err := normalize.Analysis(raw)
			if err != nil {
				s.failure(p, "analyze", err)
				continue
			}

			s.success(p, "analyze")
			return &Analysis{Result: result, ServiceUsed: p.Name()}
		}
	}

	s.logger.Info("falling back to mock generator", zap.String("task", "analyze"))
	return &Analysis{
		Result:      s.mock.Analysis(resumeText, jobDescription),
		ServiceUsed: ai.ServiceMock,
		Notice:      FallbackNotice,
	}
}

// Match returns a job-match batch for the resume.
func (s *Service) Match(ctx context.Context, resumeText string) *Matches {
	if strings.TrimSpace(resumeText) != "" {
		for _, p := range s.providers {
			raw, ok := s.call(ctx, p, "match", func(cctx context.Context) (string, error) {
				return p.Match(cctx, resumeText)
			})
			if !ok {
				continue
			}

			results, err := normalize.Matches(raw)
			if err != nil {
				s.failure(p, "match", err)
				continue
			}

			s.success(p, "match")
			return &Matches{Results: results, ServiceUsed: p.Name()}
		}
	}

	s.logger.Info("falling back to mock generator", zap.String("task", "match"))
	return &Matches{
		Results:     s.mock.Matches(resumeText),
		ServiceUsed: ai.ServiceMock,
		Notice:      FallbackNotice,
	}
}

// ExtractText transcribes an uploaded document. A missing file is a caller
// error and is the only error this method returns.
func (s *Service) ExtractText(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ai.ErrNoInput
	}

	for _, p := range s.providers {
		text, ok := s.call(ctx, p, "extract-text", func(cctx context.Context) (string, error) {
			return p.ExtractText(cctx, data, mimeType)
		})
		if !ok {
			continue
		}

		s.success(p, "extract-text")
		return &Extraction{Text: text, ServiceUsed: p.Name()}, nil
	}

	s.logger.Info("falling back to mock generator", zap.String("task", "extract-text"))
	return &Extraction{
		Text:        s.mock.ExtractText(data, mimeType),
		ServiceUsed: ai.ServiceMock,
		Notice:      FallbackNotice,
	}, nil
}

// Status actively probes every provider, refreshing the cached flags, and
// reports the preferred tier: the first available provider in order, else
// the mock generator.
func (s *Service) Status(ctx context.Context) *Status {
	status := &Status{
		Providers: make(map[ai.ServiceName]ai.ProviderStatus, len(s.providers)),
		Preferred: ai.ServiceMock,
	}

	for _, p := range s.providers {
		st := p.Probe(ctx)
		status.Providers[p.Name()] = st

		if st.Available {
			s.tracker.MarkUp(p.Name())
			if status.Preferred == ai.ServiceMock {
				status.Preferred = p.Name()
			}
		} else {
			s.tracker.MarkDown(p.Name())
		}

		s.logger.Debug("provider probe",
			zap.String("provider", string(p.Name())),
			zap.Bool("available", st.Available),
			zap.String("message", st.Message),
		)
	}

	return status
}

// call runs one provider invocation under the call timeout. A provider whose
// cached flag is down is skipped without any network traffic.
func (s *Service) call(ctx context.Context, p ai.Provider, task string, fn func(context.Context) (string, error)) (string, bool) {
	if !s.tracker.IsAvailable(p.Name()) {
		s.logger.Debug("skipping provider marked unavailable",
			zap.String("provider", string(p.Name())),
			zap.String("task", task),
		)
		return "", false
	}

	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	raw, err := fn(cctx)
	if err != nil {
		// An unsupported operation says nothing about provider health.
		if errors.Is(err, ai.ErrUnsupported) {
			s.logger.Debug("provider does not support task",
				zap.String("provider", string(p.Name())),
				zap.String("task", task),
			)
			return "", false
		}

		s.failure(p, task, err)
		return "", false
	}

	return raw, true
}

func (s *Service) failure(p ai.Provider, task string, err error) {
	s.tracker.MarkDown(p.Name())
	s.logger.Warn("provider call failed",
		zap.String("provider", string(p.Name())),
		zap.String("task", task),
		zap.Error(err),
	)
}

func (s *Service) success(p ai.Provider, task string) {
	s.tracker.MarkUp(p.Name())
	s.logger.Debug("provider call succeeded",
		zap.String("provider", string(p.Name())),
		zap.String("task", task),
	)
}
