package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGenAIBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGenAIModel   = "gemini-2.5-flash"
)

// GenerateRequest is the generateContent request body posted to the relay.
// GenAIClient translates it into the SDK's request types.
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	Temperature      float64         `json:"temperature"`
	MaxOutputTokens  int             `json:"maxOutputTokens"`
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ThinkingConfig   *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// ThinkingConfig with a zero budget disables model reasoning tokens.
type ThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

// GenerateResponse is the provider envelope as passed through by the relay.
type GenerateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// Text concatenates the parts of the first candidate.
func (r GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// GenAIClient calls the generative-text provider directly through the
// genai SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient builds a client for model. Empty baseURL and model fall
// back to the defaults.
func NewGenAIClient(ctx context.Context, baseURL, model, apiKey string, httpClient *http.Client) (*GenAIClient, error) {
	if !UsableAPIKey(apiKey) {
		return nil, ErrUnusableKey
	}
	if model == "" {
		model = DefaultGenAIModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// GenerateEndpoint returns the generateContent URL for model.
func GenerateEndpoint(baseURL, model string) string {
	return strings.TrimRight(baseURL, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

// GenerateText runs req and returns the text of the first candidate.
// Provider error statuses are reported as ErrUpstreamStatus.
func (c *GenAIClient) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Contents))
	for _, content := range req.Contents {
		parts := make([]*genai.Part, 0, len(content.Parts))
		for _, p := range content.Parts {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, &genai.Content{Role: content.Role, Parts: parts})
	}

	gc := req.GenerationConfig
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(gc.Temperature)),
		MaxOutputTokens:  int32(gc.MaxOutputTokens),
		ResponseMIMEType: gc.ResponseMIMEType,
	}
	if gc.ThinkingConfig != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(gc.ThinkingConfig.ThinkingBudget)),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("genai generate: %w: %d %s", ErrUpstreamStatus, apiErr.Code, apiErr.Status)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", fmt.Errorf("genai generate: %w: %d %s", ErrUpstreamStatus, apiErrPtr.Code, apiErrPtr.Status)
		}
		return "", fmt.Errorf("genai generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai generate: empty response: %w", ErrMalformedBody)
	}
	return text, nil
}
