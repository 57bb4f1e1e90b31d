// Package llm wraps the completion capability. The engine only sees the
// Completer interface; the Groq client implements it over the
// OpenAI-compatible chat completions endpoint.
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

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// Params are the caller-suppliable knobs for one completion call. Zero
// values mean "use the configured default"; nothing else is validated.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completer is the completion capability. One attempt per call, no
// automatic retry.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string, p Params) (string, error)
}

// ErrTooLarge marks rate-limit / request-too-large rejections so the
// engine can show the dedicated message for them.
var ErrTooLarge = errors.New("request too large or rate limited")

const defaultEndpoint = "https://api.groq.com/openai/v1"

type GroqClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *logger.Logger
}

func NewGroqClient(apiKey string) *GroqClient {
	return &GroqClient{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      logger.New("groq"),
	}
}

// NewGroqClientWithEndpoint points the client at a non-default server,
// used by tests and OpenAI-compatible stand-ins.
func NewGroqClientWithEndpoint(apiKey, endpoint string) *GroqClient {
	c := NewGroqClient(apiKey)
	c.endpoint = strings.TrimRight(endpoint, "/")
	return c
}

var _ Completer = (*GroqClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *GroqClient) Complete(ctx context.Context, systemPrompt, userMessage string, p Params) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := strings.TrimSpace(string(data))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests ||
			(parsed.Error != nil && parsed.Error.Code == "rate_limit_exceeded") ||
			strings.Contains(msg, "Request too large") {
			return "", fmt.Errorf("%w: %s", ErrTooLarge, msg)
		}
		return "", fmt.Errorf("completion failed (status %d): %s", resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
