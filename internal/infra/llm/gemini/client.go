package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yanqian/synergy-circle/pkg/metrics"
)

// ErrMissingAPIKey is returned by every call when no credential was configured.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// Options configures the Gemini client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs generateContent calls against the Gemini API.
type Client struct {
	client       *genai.Client
	defaultModel string
	timeout      time.Duration
	logger       *slog.Logger
}

// NewClient constructs a Gemini client. A missing API key is not an error here:
// the client is still returned and every call fails with ErrMissingAPIKey.
func NewClient(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	c := &Client{
		defaultModel: strings.TrimSpace(opts.Model),
		timeout:      opts.Timeout,
		logger:       logger.With("component", "gemini.client"),
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		c.logger.Warn("gemini api key not set, analyses will fail")
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cc.HTTPOptions.BaseURL = base
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// GenerateContent issues exactly one generateContent call.
func (c *Client) GenerateContent(ctx context.Context, req Request) (Response, error) {
	if c.client == nil {
		return Response{}, ErrMissingAPIKey
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   req.ResponseSchema.toGenAI(),
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		config.Temperature = &temp
	}
	if req.GoogleSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	c.logger.Debug("generating with gemini", "model", model, "google_search", req.GoogleSearch, "prompt_length", len(req.Prompt))

	resp, err := c.client.Models.GenerateContent(ctx, model, []*genai.Content{
		{
			Role:  string(genai.RoleUser),
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	out := Response{
		Text:            extractText(resp),
		Model:           model,
		GroundingChunks: extractGroundingChunks(resp),
		Usage:           extractUsage(resp),
	}
	c.logger.Debug("gemini response received", "length", len(out.Text), "grounding_chunks", len(out.GroundingChunks), "total_tokens", out.Usage.TotalTokens)
	return out, nil
}

// StatusCode reports the HTTP status carried by a Gemini API error, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func extractGroundingChunks(resp *genai.GenerateContentResponse) []GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	chunks := make([]GroundingChunk, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil {
			continue
		}
		var out GroundingChunk
		if chunk.Web != nil {
			out.Web = &WebSource{Title: chunk.Web.Title, URI: chunk.Web.URI}
		}
		chunks = append(chunks, out)
	}
	return chunks
}

func extractUsage(resp *genai.GenerateContentResponse) metrics.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return metrics.TokenUsage{}
	}
	u := resp.UsageMetadata
	return metrics.NewTokenUsage(u.PromptTokenCount, u.CandidatesTokenCount, u.ToolUsePromptTokenCount, u.TotalTokenCount)
}

