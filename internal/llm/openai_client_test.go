// ABOUTME: Tests for the OpenAI adapter against a local fake API server
// ABOUTME: Verifies request shape, response parsing, and retry on server errors

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, failFirst int32) (*httptest.Server, *int32) {
	t.Helper()
	var requests int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n <= failFirst {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,0.75]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":3,"total_tokens":3}}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "be grounded", body.Messages[0].Content)
		assert.Equal(t, "what?", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"  grounded answer "},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testOpenAIClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClientWithConfig(&ClientConfig{
		APIKey:  "sk-test",
		BaseURL: baseURL + "/v1",
		Policy:  Policy{MaxRetries: 2},
	})
	require.NoError(t, err)
	return client
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	assert.Error(t, err)
}

func TestOpenAIClient_Fingerprint(t *testing.T) {
	client, err := NewOpenAIClient("sk-test")
	require.NoError(t, err)
	assert.Equal(t, "openai/text-embedding-3-small", client.Fingerprint())
	assert.Equal(t, "openai", client.Name())
	assert.NoError(t, client.Close())
}

func TestOpenAIClient_Embed(t *testing.T) {
	srv, _ := fakeOpenAI(t, 0)
	client := testOpenAIClient(t, srv.URL)

	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, vec)
}

func TestOpenAIClient_EmbedRetriesServerErrors(t *testing.T) {
	srv, requests := fakeOpenAI(t, 1)
	client := testOpenAIClient(t, srv.URL)
	client.caller.sleep = func(context.Context, time.Duration) error { return nil }

	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(requests))
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv, _ := fakeOpenAI(t, 0)
	client := testOpenAIClient(t, srv.URL)

	got, err := client.Generate(context.Background(), Prompt{System: "be grounded", User: "what?"})
	require.NoError(t, err)
	assert.Equal(t, "  grounded answer ", got)
}
