// Package llmclient is a generic OpenAI-chat-completions-compatible
// adapter satisfying markdown.LLMClient. The two LLM providers
// themselves stay out-of-scope external collaborators (spec §1); this
// package only speaks the wire contract most hosted completion
// endpoints share (DeepSeek, Google's OpenAI-compatible endpoint,
// and similar), so a provider entry from config.MarkdownExtractorConfig
// can be wired into the cascade without a provider-specific SDK.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tidwall/gjson"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/service/task/fetcher"
)

// Client calls one OpenAI-compatible chat/completions endpoint.
type Client struct {
	name      string
	endpoint  string
	apiKeyEnv string
	model     string
	fetcher   fetcher.Fetcher
}

// New builds a Client. name identifies the provider in logs and the
// result's method-used field; endpoint is the full chat/completions
// URL; apiKeyEnv names the environment variable the API key is read
// from at call time (never stored on the struct, never logged).
func New(name, endpoint, apiKeyEnv, model string, f fetcher.Fetcher) *Client {
	return &Client{name: name, endpoint: endpoint, apiKeyEnv: apiKeyEnv, model: model, fetcher: f}
}

func (c *Client) Name() string { return c.name }

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

// Complete sends prompt as a single user message and returns the first
// choice's message content.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, maxOutputTokens int) (string, error) {
	apiKey := os.Getenv(c.apiKeyEnv)
	if apiKey == "" {
		return "", apperrors.New(apperrors.InvalidInput, fmt.Sprintf("llmclient: %s api key env %q is unset", c.name, c.apiKeyEnv))
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "llmclient: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "llmclient: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("llmclient: %s request failed", c.name))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.Unavailable, fmt.Sprintf("llmclient: %s returned status %d", c.name, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("llmclient: %s read body", c.name))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", apperrors.New(apperrors.Unavailable, fmt.Sprintf("llmclient: %s reply missing choices[0].message.content", c.name))
	}
	return content.String(), nil
}
