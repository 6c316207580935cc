package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
)

func TestChatSendsJSONSchemaFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-4o", body["model"])
		require.Equal(t, float64(16384), body["max_completion_tokens"])

		rf := body["response_format"].(map[string]any)
		require.Equal(t, "json_schema", rf["type"])
		js := rf["json_schema"].(map[string]any)
		require.Equal(t, "next_step", js["name"])
		require.Equal(t, true, js["strict"])
		require.NotNil(t, js["schema"])

		_, _ = w.Write([]byte(`{
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{}"}}],
			"usage":{"prompt_tokens":100,"completion_tokens":20,"total_tokens":120}
		}`))
	}))
	defer srv.Close()

	p := NewProvider("openai", srv.URL, "key", 0)
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model:     "gpt-4o",
		Messages:  []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
		MaxTokens: 16384,
		ResponseFormat: &llm.ResponseFormat{
			Name:   "next_step",
			Schema: json.RawMessage(`{"type":"object"}`),
			Strict: true,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "{}", resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 120, resp.Usage.TotalTokens)
	require.Equal(t, "openai", resp.ProviderName)
}

func TestChatSerializesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []openAIMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)

		call := body.Messages[0].ToolCalls[0]
		require.Equal(t, "step_1", call.ID)
		require.Equal(t, "function", call.Type)
		require.Equal(t, "/projects/search", call.Function.Name)

		require.Equal(t, "step_1", body.Messages[1].ToolCallID)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("openai", srv.URL, "", 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "gpt-4o",
		Messages: []llm.ChatMessage{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{
					ID: "step_1",
					Function: llm.ToolFunctionCall{
						Name:      "/projects/search",
						Arguments: json.RawMessage(`{"query":"apollo"}`),
					},
				}},
			},
			{Role: llm.RoleTool, ToolCallID: "step_1", Content: `{"results":[]}`},
		},
	})
	require.NoError(t, err)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	p := NewProvider("openai", srv.URL, "", 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Model:    "gpt-4o",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestChatRequiresModel(t *testing.T) {
	p := NewProvider("openai", "http://unused", "", 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)
}
