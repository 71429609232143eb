// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/research-tracker/pkg/types"
)

const defaultAPIVersion = "2024-02-15-preview"

// AzureOpenAIBackend calls an Azure OpenAI chat-completions deployment.
// The endpoint comes from configuration, so tests point it at an
// httptest server.
type AzureOpenAIBackend struct {
	Endpoint   string
	Deployment string
	APIVersion string
	APIKey     string
	Client     *http.Client
}

// NewAzureOpenAIBackend builds a backend from configuration.
func NewAzureOpenAIBackend(cfg types.GenerationConfig) (*AzureOpenAIBackend, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("generation endpoint and API key must be configured")
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	deployment := cfg.Deployment
	if deployment == "" {
		deployment = "gpt-4o"
	}
	return &AzureOpenAIBackend{
		Endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		Deployment: deployment,
		APIVersion: apiVersion,
		APIKey:     cfg.APIKey,
		Client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Generate sends one system+user exchange and returns the completion text
// verbatim. An empty completion is reported as ErrEmptyGeneration.
func (b *AzureOpenAIBackend) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		b.Endpoint, b.Deployment, b.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation API returned %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding generation response: %w", err)
	}

	if len(cr.Choices) == 0 {
		return "", ErrEmptyGeneration
	}
	return cr.Choices[0].Message.Content, nil
}
