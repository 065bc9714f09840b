package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compatibleServer(t *testing.T, body *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "c1", "object": "chat.completion", "model": "qwen",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompatibleProviderSamplingParams(t *testing.T) {
	topK, minP, temp := 20, float32(0.05), float32(0.7)
	req := ChatRequest{
		Model:       "qwen",
		Messages:    messages("user", "hi"),
		Temperature: &temp,
		TopK:        &topK,
		MinP:        &minP,
	}

	tests := []struct {
		vendor  string
		forward bool
	}{
		{vendor: HuggingFace, forward: true},
		{vendor: DeepInfra, forward: true},
		{vendor: Groq, forward: false},
	}
	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			var body map[string]any
			srv := compatibleServer(t, &body)

			resp, err := NewCompatibleProvider(tt.vendor, srv.URL, "key-live").ChatCompletion(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, "c1", resp.ID)
			assert.Equal(t, "qwen", body["model"])
			assert.InDelta(t, 0.7, body["temperature"], 1e-6)

			if tt.forward {
				assert.Equal(t, 20.0, body["top_k"])
				assert.InDelta(t, 0.05, body["min_p"], 1e-6)
			} else {
				assert.NotContains(t, body, "top_k")
				assert.NotContains(t, body, "min_p")
			}
		})
	}
}

func TestCompatibleProviderWithoutSamplingParams(t *testing.T) {
	var body map[string]any
	srv := compatibleServer(t, &body)

	_, err := NewCompatibleProvider(HuggingFace, srv.URL, "key-live").ChatCompletion(context.Background(), ChatRequest{
		Model:    "qwen",
		Messages: messages("user", "hi"),
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "top_k")
	assert.NotContains(t, body, "min_p")
}
