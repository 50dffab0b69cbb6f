// Package openai adapts an OpenAI-shaped chat-completions backend to the
// provider contract.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai"
	"github.com/praveenlokku/EasyApply/internal/logger"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	completionsPath = "/chat/completions"
)

// sleep is a seam for retry backoff in tests.
var sleep = time.Sleep

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client is the OpenAI-shaped provider adapter.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	maxRetries int
	maxLogLen  int
}

// NewClient builds the adapter. An empty API key is a normal condition; the
// client reports key-missing on every call so the orchestrator routes past it.
func NewClient(apiKey, model string, log *zap.Logger) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:     log,
		maxRetries: 2,
		maxLogLen:  200,
	}
}

func (c *Client) Name() ai.ServiceName { return ai.ServiceOpenAI }

// Probe issues a one-token completion. Any semantically expected response
// counts as healthy; failures only inform routing.
func (c *Client) Probe(ctx context.Context) ai.ProviderStatus {
	if c.apiKey == "" {
		return ai.ProviderStatus{Available: false, Message: "OpenAI API key is not configured"}
	}

	_, err := c.complete(ctx, chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return ai.ProviderStatus{Available: false, Message: statusMessage(err)}
	}

	return ai.ProviderStatus{Available: true, Message: "OpenAI API is available"}
}

func (c *Client) Analyze(ctx context.Context, resumeText, jobDescription string) (string, error) {
	return c.chat(ctx, ai.AnalyzeSystemPrompt, ai.AnalyzeUserPrompt(resumeText, jobDescription))
}

func (c *Client) Match(ctx context.Context, resumeText string) (string, error) {
	return c.chat(ctx, ai.MatchSystemPrompt, ai.MatchUserPrompt(resumeText))
}

// ExtractText is not offered: the chat-completions endpoint takes no inline
// documents. The orchestrator defers to the next tier.
func (c *Client) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return "", ai.ErrUnsupported
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

func (c *Client) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	if c.apiKey == "" {
		return "", ai.Unavailable(ai.ServiceOpenAI, ai.ReasonKeyMissing, errors.New("api key not configured"))
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			sleep(time.Duration(attempt) * time.Second)
		}

		output, retryable, err := c.doRequest(ctx, payload)
		if err == nil {
			return output, nil
		}

		lastErr = err
		if !retryable {
			return "", err
		}

		if c.logger != nil {
			c.logger.Debug("retrying openai request",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
	}

	return "", lastErr
}

// doRequest performs one HTTP round trip. Only 5xx responses are retryable.
func (c *Client) doRequest(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonKeyMissing, fmt.Errorf("bad status: %s", resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonQuotaExceeded, fmt.Errorf("bad status: %s", resp.Status))
	case resp.StatusCode >= 500:
		return "", true, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, fmt.Errorf("bad status: %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, fmt.Errorf("bad status: %s", resp.Status))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, fmt.Errorf("decode response: %w", err))
	}

	if parsed.Error != nil {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, errors.New(parsed.Error.Message))
	}

	if len(parsed.Choices) == 0 {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, ai.ErrEmptyResponse)
	}

	output := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if output == "" {
		return "", false, ai.Unavailable(ai.ServiceOpenAI, ai.ReasonUnknown, ai.ErrEmptyResponse)
	}

	if c.logger != nil {
		c.logger.Debug("openai response",
			zap.String("model", c.model),
			zap.Int("response_length", len(output)),
			zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
		)
	}

	return output, false, nil
}

func statusMessage(err error) string {
	var unavailable *ai.UnavailableError
	if errors.As(err, &unavailable) {
		switch unavailable.Reason {
		case ai.ReasonKeyMissing:
			return "OpenAI API key is missing or invalid"
		case ai.ReasonQuotaExceeded:
			return "OpenAI API quota exceeded"
		}
	}
	return fmt.Sprintf("OpenAI API error: %v", err)
}
