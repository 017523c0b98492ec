package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
			Stream   bool          `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.False(t, body.Stream)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "What is this?", body.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A paper."}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "test-model"})
	reply, err := client.Generate(context.Background(), "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "A paper.", reply)
}

func TestGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := client.Generate(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := client.Generate(context.Background(), "q")
	assert.Error(t, err)
}

func TestGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	var chunks []string
	full, err := client.GenerateStream(context.Background(), "q", func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", full)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
}

func TestGenerateHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := client.Generate(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(ctx, ProviderConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGenerator(ctx, ProviderConfig{Provider: "bard", APIKey: "k"})
	assert.Error(t, err)

	gen, err := NewGenerator(ctx, ProviderConfig{Provider: "openai", APIKey: "k", BaseURL: "http://x", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompatibleClient{}, gen)
}
