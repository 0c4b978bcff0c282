// Package visionclient is a generic OpenAI-vision-compatible adapter
// satisfying browser.VisionClient. The vision model itself stays an
// out-of-scope external collaborator (spec §1); this package only
// speaks the multimodal chat/completions contract most hosted vision
// endpoints share, encoding each screenshot as a base64 data URL
// alongside the prompt.
package visionclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tidwall/gjson"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/browser"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/service/task/fetcher"
)

// Client calls one OpenAI-vision-compatible chat/completions endpoint.
type Client struct {
	name      string
	endpoint  string
	apiKeyEnv string
	fetcher   fetcher.Fetcher
}

// New builds a Client. apiKeyEnv names the environment variable the API
// key is read from at call time.
func New(name, endpoint, apiKeyEnv string, f fetcher.Fetcher) *Client {
	return &Client{name: name, endpoint: endpoint, apiKeyEnv: apiKeyEnv, fetcher: f}
}

func (c *Client) Name() string { return c.name }

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type visionRequest struct {
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

// Complete sends prompt plus every screenshot as an inline base64 data
// URL and returns the first choice's message content.
func (c *Client) Complete(ctx context.Context, prompt string, images []browser.Screenshot, maxOutputTokens int) (string, error) {
	apiKey := os.Getenv(c.apiKeyEnv)
	if apiKey == "" {
		return "", apperrors.New(apperrors.InvalidInput, fmt.Sprintf("visionclient: %s api key env %q is unset", c.name, c.apiKeyEnv))
	}

	parts := []contentPart{{Type: "text", Text: prompt}}
	for _, img := range images {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.PNG),
			},
		})
	}

	body, err := json.Marshal(visionRequest{
		Messages:  []visionMessage{{Role: "user", Content: parts}},
		MaxTokens: maxOutputTokens,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "visionclient: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "visionclient: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("visionclient: %s request failed", c.name))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.Unavailable, fmt.Sprintf("visionclient: %s returned status %d", c.name, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("visionclient: %s read body", c.name))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", apperrors.New(apperrors.Unavailable, fmt.Sprintf("visionclient: %s reply missing choices[0].message.content", c.name))
	}
	return content.String(), nil
}
