// Package gemini adapts the Google GenAI backend to the provider contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/praveenlokku/EasyApply/internal/ai"
	"github.com/praveenlokku/EasyApply/internal/logger"
)

const defaultModel = "gemini-2.0-flash"

// probePrompt is the minimal low-cost request used for health checks.
const probePrompt = `Respond with the single word "ok".`

// contentCaller is the seam between the adapter and the genai SDK so tests
// can substitute responses.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiCaller struct {
	client *genai.Client
}

func (c *genaiCaller) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// Client is the Gemini-shaped provider adapter. It issues exactly one call
// per invocation and never falls back itself.
type Client struct {
	caller    contentCaller
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// NewClient builds the adapter. An empty API key is a normal condition: the
// client is still constructed, and every call reports key-missing so the
// orchestrator can route around it.
func NewClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*Client, error) {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	c := &Client{model: model, logger: log, maxLogLen: 200}

	if apiKey = strings.TrimSpace(apiKey); apiKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	c.caller = &genaiCaller{client: client}
	return c, nil
}

func (c *Client) Name() ai.ServiceName { return ai.ServiceGemini }

// Probe issues a one-word completion and interprets any semantically
// expected response as healthy. Probe failures only inform routing.
func (c *Client) Probe(ctx context.Context) ai.ProviderStatus {
	if c.caller == nil {
		return ai.ProviderStatus{Available: false, Message: "Gemini API key is not configured"}
	}

	if _, err := c.generate(ctx, probePrompt, genai.Text("ping")); err != nil {
		return ai.ProviderStatus{Available: false, Message: statusMessage(err)}
	}

	return ai.ProviderStatus{Available: true, Message: "Gemini API is available"}
}

func (c *Client) Analyze(ctx context.Context, resumeText, jobDescription string) (string, error) {
	return c.generate(ctx, ai.AnalyzeSystemPrompt, genai.Text(ai.AnalyzeUserPrompt(resumeText, jobDescription)))
}

func (c *Client) Match(ctx context.Context, resumeText string) (string, error) {
	return c.generate(ctx, ai.MatchSystemPrompt, genai.Text(ai.MatchUserPrompt(resumeText)))
}

// ExtractText submits the document as an inline multimodal payload with a
// transcription instruction. The SDK carries the bytes base64-encoded.
func (c *Client) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: ai.ExtractInstruction},
		},
	}}

	return c.generate(ctx, "", contents)
}

func (c *Client) generate(ctx context.Context, system string, contents []*genai.Content) (string, error) {
	if c.caller == nil {
		return "", ai.Unavailable(ai.ServiceGemini, ai.ReasonKeyMissing, errors.New("api key not configured"))
	}

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
	}

	resp, err := c.caller.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", categorize(err)
	}

	output := collectText(resp)
	if output == "" {
		return "", ai.Unavailable(ai.ServiceGemini, ai.ReasonUnknown, ai.ErrEmptyResponse)
	}

	if c.logger != nil {
		c.logger.Debug("gemini response",
			zap.String("model", c.model),
			zap.Int("response_length", len(output)),
			zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
		)
	}

	return output, nil
}

// collectText concatenates the textual parts of every candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

// categorize maps transport errors to the failure taxonomy.
func categorize(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ai.Unavailable(ai.ServiceGemini, ai.ReasonKeyMissing, err)
		case http.StatusTooManyRequests:
			return ai.Unavailable(ai.ServiceGemini, ai.ReasonQuotaExceeded, err)
		}
	}
	return ai.Unavailable(ai.ServiceGemini, ai.ReasonUnknown, err)
}

func statusMessage(err error) string {
	var unavailable *ai.UnavailableError
	if errors.As(err, &unavailable) {
		switch unavailable.Reason {
		case ai.ReasonKeyMissing:
			return "Gemini API key is missing or invalid"
		case ai.ReasonQuotaExceeded:
			return "Gemini API quota exceeded"
		}
	}
	return fmt.Sprintf("Gemini API error: %v", err)
}
