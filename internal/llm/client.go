package llm

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

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/httpclient"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("llm api key not configured")

// Client produces a single completion for a system and user prompt.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient overrides the transport; nil uses one with the LLM timeout.
	HTTPClient *http.Client
}

type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *httpclient.Client
	logger  *logger.Logger
	metrics *metrics.Metrics
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultOpenAIModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: constants.LLMHTTPTimeout}
	}
	if log == nil {
		log = logger.Default()
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    httpclient.NewClient(hc, 0),
		logger:  log.WithComponent("llm"),
		metrics: m,
	}
}

// WithRetry adjusts the retry policy of the underlying HTTP client.
func (c *OpenAIClient) WithRetry(count int, base time.Duration) *OpenAIClient {
	c.http.WithRetry(count, base)
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// HTTPError is a non-2xx answer from the completion endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	text, err := c.do(ctx, req)
	c.metrics.ExternalCall("openai", "chat_completion", time.Since(start), err)
	if err != nil {
		c.logger.Warn("completion failed", "model", c.model, "error", err)
		return "", err
	}
	return text, nil
}

func (c *OpenAIClient) do(ctx context.Context, req *http.Request) (string, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("llm decode error: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	c.logger.Debug("completion done",
		"model", c.model,
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
	)
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
