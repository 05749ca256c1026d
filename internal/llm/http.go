package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ResponsesClient calls an OpenAI-compatible Responses API endpoint.
type ResponsesClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewResponsesClient creates a ResponsesClient. baseURL excludes "/v1".
func NewResponsesClient(baseURL, apiKey, model string) *ResponsesClient {
	return &ResponsesClient{name: "responses", baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model, http: &http.Client{}}
}

// Name returns the provider identifier.
func (c *ResponsesClient) Name() string { return c.name }

// Analyze sends prompt as a single user message and returns the output text.
func (c *ResponsesClient) Analyze(ctx context.Context, prompt string) (string, error) {
	req := ResponsesRequest{
		Model: c.model,
		Input: []InputItem{{Type: "message", Role: "user", Content: prompt}},
	}
	var resp ResponsesAPIResponse
	if err := postJSON(ctx, c.http, c.baseURL+"/v1/responses", c.apiKey, &req, &resp); err != nil {
		return "", err
	}
	if resp.OutputText != "" {
		return resp.OutputText, nil
	}

	var parts []string
	for _, item := range resp.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" {
				parts = append(parts, content.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// ChatClient calls an OpenAI-compatible Chat Completions endpoint.
type ChatClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewChatClient creates a ChatClient. baseURL excludes "/v1".
func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	return &ChatClient{name: "chat", baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model, http: &http.Client{}}
}

// Name returns the provider identifier.
func (c *ChatClient) Name() string { return c.name }

// Analyze sends prompt as a single user message and returns the first choice.
func (c *ChatClient) Analyze(ctx context.Context, prompt string) (string, error) {
	req := ChatRequest{
		Model:    c.model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
	}
	var resp ChatCompletionResponse
	if err := postJSON(ctx, c.http, c.baseURL+"/v1/chat/completions", c.apiKey, &req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	slog.Debug("calling provider", "url", url, "bytes", len(body))
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
