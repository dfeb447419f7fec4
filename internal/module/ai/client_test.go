package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteshare/server/internal/shared/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.AIConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
		MaxTokens:      256,
	})
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model     string    `json:"model"`
			Messages  []Message `json:"messages"`
			MaxTokens int       `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "write a haiku", body.Messages[0].Content)
		assert.Equal(t, 256, body.MaxTokens)

		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{
					"message":       map[string]string{"role": "assistant", "content": "leaves drift on water"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 7},
		})
	}))
	defer server.Close()

	completion, err := newTestClient(server.URL).Complete(context.Background(), "write a haiku")
	require.NoError(t, err)

	assert.Equal(t, "leaves drift on water", completion.Content)
	assert.Equal(t, "test-model", completion.Model)
	assert.Equal(t, 12, completion.PromptTokens)
	assert.Equal(t, 7, completion.CompletionTokens)
}

func TestClient_Complete_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"model": "test-model", "choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_Complete_Unreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
