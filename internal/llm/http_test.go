package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponsesClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("auth header: %s", r.Header.Get("Authorization"))
		}
		var req ResponsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-5.1" {
			t.Fatalf("model: %s", req.Model)
		}
		if len(req.Input) != 1 || req.Input[0].Role != "user" || req.Input[0].Content != "scan this" {
			t.Fatalf("input: %+v", req.Input)
		}

		resp := ResponsesAPIResponse{
			ID:     "resp_1",
			Status: "completed",
			Output: []OutputItem{
				{Type: "reasoning"},
				{Type: "message", Role: "assistant", Content: []OutputContent{{Type: "output_text", Text: "[]"}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	got, err := NewResponsesClient(srv.URL, "test-key", "gpt-5.1").Analyze(context.Background(), "scan this")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[]" {
		t.Errorf("Analyze() = %q, want []", got)
	}
}

func TestResponsesClient_OutputTextShortcut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"r","output_text":"hello","output":[]}`))
	}))
	defer srv.Close()

	got, err := NewResponsesClient(srv.URL, "", "m").Analyze(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("Analyze() = %q, want hello", got)
	}
}

func TestChatClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("no key configured, got auth header %q", r.Header.Get("Authorization"))
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "prompt" {
			t.Fatalf("messages: %+v", req.Messages)
		}
		resp := ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Choices: []Choice{{Message: ChatMessage{Role: "assistant", Content: `[{"bug_type":"Injection"}]`}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	got, err := NewChatClient(srv.URL+"/", "", "deepseek-chat").Analyze(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != `[{"bug_type":"Injection"}]` {
		t.Errorf("Analyze() = %q", got)
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := NewChatClient(srv.URL, "", "m").Analyze(context.Background(), "p"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestPostJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewResponsesClient(srv.URL, "k", "m").Analyze(context.Background(), "p")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestPostJSON_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := NewChatClient(srv.URL, "", "m").Analyze(context.Background(), "p"); err == nil {
		t.Fatal("expected decode error")
	}
}
