package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calebmoss/storyweave/pkg/chat"
)

func TestNewAnthropicService(t *testing.T) {
	apiKey := "test-api-key"
	modelName := "claude-3-5-sonnet-20241022"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewAnthropicService(apiKey, modelName, log)

	if service.apiKey != apiKey {
		t.Errorf("Expected API key %s, got %s", apiKey, service.apiKey)
	}
	if service.modelName != modelName {
		t.Errorf("Expected model name %s, got %s", modelName, service.modelName)
	}
	if service.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if service.baseURL != anthropicBaseURL {
		t.Errorf("Expected default base URL, got %s", service.baseURL)
	}
}

func TestAnthropicService_SplitMessages(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "test-model", log)

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: "You are Mara."},
		{Role: chat.RoleSystem, Content: "Current relationship state: Trust: 52"},
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleAssistant, Content: "hi"},
	}

	systemPrompt, conversation := service.splitMessages(messages)

	if !strings.Contains(systemPrompt, "You are Mara.") || !strings.Contains(systemPrompt, "Trust: 52") {
		t.Errorf("System turns not combined: %q", systemPrompt)
	}
	if len(conversation) != 2 {
		t.Fatalf("Expected 2 conversation turns, got %d", len(conversation))
	}
	if conversation[0].Role != chat.RoleUser || conversation[1].Role != chat.RoleAssistant {
		t.Errorf("Conversation order lost: %+v", conversation)
	}
}

func TestAnthropicService_GenerateReply(t *testing.T) {
	var gotReq anthropicChatRequest
	var gotAPIKey, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(anthropicChatResponse{
			ID:      "msg_test",
			Type:    "message",
			Role:    "assistant",
			Content: []anthropicContentBlock{{Type: "text", Text: "Glad you stayed."}},
		})
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "test-model", log)
	service.baseURL = server.URL

	reply, err := service.GenerateReply(context.Background(), []chat.Message{
		{Role: chat.RoleSystem, Content: "You are Mara."},
		{Role: chat.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if reply != "Glad you stayed." {
		t.Errorf("Unexpected reply: %q", reply)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("Expected api key header, got %q", gotAPIKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("Expected version header %q, got %q", anthropicVersion, gotVersion)
	}
	if gotReq.System != "You are Mara." {
		t.Errorf("System prompt not lifted to request field: %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != chat.RoleUser {
		t.Errorf("Unexpected conversation payload: %+v", gotReq.Messages)
	}
}

func TestAnthropicService_GenerateReplyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "test-model", log)
	service.baseURL = server.URL

	_, err := service.GenerateReply(context.Background(), []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
	})
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestAnthropicService_GenerateReplyEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicChatResponse{ID: "msg_test", Type: "message"})
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "test-model", log)
	service.baseURL = server.URL

	_, err := service.GenerateReply(context.Background(), []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
	})
	if err == nil {
		t.Fatal("Expected error for empty content")
	}
}
