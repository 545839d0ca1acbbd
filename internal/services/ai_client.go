package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/logger"
)

// AIClient talks to the HappyCapy AI Gateway, an OpenAI-compatible
// chat-completions endpoint fronting several hosted models.
type AIClient interface {
	// Complete sends one prompt and returns the first choice's content.
	// One attempt per call; the configured timeout is the only guard.
	Complete(ctx context.Context, model string, prompt string) (*ChatResult, error)
}

type ChatResult struct {
	Content string
	Usage   *GatewayUsage
}

type GatewayHTTPError struct {
	Status int
	Body   string
}

func (e *GatewayHTTPError) Error() string {
	return fmt.Sprintf("ai gateway http %d: %s", e.Status, e.Body)
}

type GatewayUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type aiClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAIClient(cfg config.GatewayConfig, log *logger.Logger) (AIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing gateway base URL")
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &aiClient{
		log:        log.With("service", "AIClient"),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *GatewayUsage `json:"usage,omitempty"`
}

func (c *aiClient) Complete(ctx context.Context, model string, prompt string) (*ChatResult, error) {
	reqBody := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayHTTPError{Status: 0, Body: err.Error()}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &GatewayHTTPError{Status: resp.StatusCode, Body: readErr.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("AI gateway returned error", "status", resp.StatusCode, "body", string(raw))
		return nil, &GatewayHTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("ai gateway decode error: %w; raw=%s", err, string(raw))
	}
	result := &ChatResult{Usage: parsed.Usage}
	if len(parsed.Choices) > 0 {
		result.Content = parsed.Choices[0].Message.Content
	}
	return result, nil
}
