package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestChatForwardsHistoryAndDefaults(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&captured)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "Hello there"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	provider := NewProvider("test-key", srv.URL, "gpt-3.5-turbo")

	result, err := provider.Chat(t.Context(), []llm.Message{
		{Role: "system", Content: "Be helpful."},
		{Role: "user", Content: "Hi"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello there", result.Content)
	assert.NotNil(t, result.Usage)
	assert.Equal(t, 15, result.Usage.TotalTokens)

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.Equal(t, 0.7, captured.Temperature)
	assert.Equal(t, 1000, captured.MaxTokens)
	assert.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	provider := NewProvider("test-key", srv.URL, "")

	result, err := provider.Chat(t.Context(), []llm.Message{{Role: "user", Content: "Hi"}})
	assert.NoError(t, err)
	assert.Empty(t, result.Content)
	assert.Nil(t, result.Usage)
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	provider := NewProvider("bad-key", srv.URL, "")

	result, err := provider.Chat(t.Context(), []llm.Message{{Role: "user", Content: "Hi"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Nil(t, result)
}

func TestChatModelOverride(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	provider := NewProvider("test-key", srv.URL, "gpt-3.5-turbo")

	_, err := provider.Chat(t.Context(),
		[]llm.Message{{Role: "user", Content: "Hi"}},
		llm.WithModel("gpt-4o-mini"),
	)
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
}
