package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/providers"
)

type textStream struct {
	chunks []openai.ChatCompletionStreamResponse
	i      int
}

func newTextStream(parts ...string) *textStream {
	s := &textStream{}
	for _, p := range parts {
		s.chunks = append(s.chunks, openai.ChatCompletionStreamResponse{
			ID: "chunk",
			Choices: []openai.ChatCompletionStreamChoice{{
				Delta: openai.ChatCompletionStreamChoiceDelta{Content: p},
			}},
		})
	}
	s.chunks = append(s.chunks, openai.ChatCompletionStreamResponse{
		ID:    "chunk",
		Usage: &openai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	})
	return s
}

func (s *textStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if s.i >= len(s.chunks) {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *textStream) Close() error { return nil }

func chatBody(model string, extra string) string {
	return `{"model":"` + model + `","messages":[{"role":"user","content":"hi"}]` + extra + `}`
}

func TestChatRejectsBadRequests(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "", `{"model":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/v1/chat/completions", "", `{"model":"scira-default","messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, e.provider.calls())
}

func TestChatAccessDenials(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		model   string
		country string
		status  int
		reason  string
	}{
		{name: "unknown model", model: "scira-nope", status: http.StatusNotFound, reason: access.ReasonModelNotFound},
		{name: "anonymous on auth model", model: "scira-qwen-4b", status: http.StatusUnauthorized, reason: access.ReasonAuthenticationRequired},
		{name: "free user on pro model", token: "tok-free", model: "scira-grok-3", status: http.StatusForbidden, reason: access.ReasonSubscriptionRequired},
		{name: "region restricted", token: "tok-pro", model: "scira-gpt-4o-mini", country: "ru", status: http.StatusForbidden, reason: access.ReasonRegionRestricted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			var headers []header
			if tt.country != "" {
				headers = append(headers, header{"X-Vercel-IP-Country", tt.country})
			}

			w := e.do(http.MethodPost, "/v1/chat/completions", tt.token, chatBody(tt.model, ""), headers...)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.reason, decodeError(t, w).Reason)
			assert.Zero(t, e.provider.calls())
			assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.ChatRequests.WithLabelValues(tt.model, tt.reason)))
		})
	}
}

func TestChatCompletion(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-free", chatBody("scira-qwen-4b", `,"max_tokens":999999`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, providers.Groq, w.Header().Get("X-Provider"))
	assert.Equal(t, "false", w.Header().Get("X-Cache-Hit"))
	assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))

	var resp providers.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "qwen3-4b", resp.Model)

	require.Equal(t, 1, e.provider.calls())
	sent := e.provider.requests[0]
	require.NotNil(t, sent.MaxTokens)
	assert.Equal(t, 16000, *sent.MaxTokens)
	// descriptor defaults fill omitted sampling params
	require.NotNil(t, sent.TopK)
	assert.Equal(t, 20, *sent.TopK)
	require.NotNil(t, sent.Temperature)
	assert.InDelta(t, 0.7, *sent.Temperature, 1e-6)
	require.NotNil(t, sent.MinP)
	assert.Zero(t, *sent.MinP)

	row := e.usage.next(t)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "u-free", *row.UserID)
	assert.Equal(t, "scira-qwen-4b", row.ModelID)
	assert.Equal(t, "qwen3-4b", row.BackendModel)
	assert.Equal(t, http.StatusOK, row.StatusCode)
}

func TestChatKeepsCallerParams(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-free", chatBody("scira-qwen-4b", `,"temperature":0.1,"max_tokens":50`))
	require.Equal(t, http.StatusOK, w.Code)

	sent := e.provider.requests[0]
	assert.InDelta(t, 0.1, *sent.Temperature, 1e-6)
	assert.Equal(t, 50, *sent.MaxTokens)
}

func TestChatServesRepeatsFromCache(t *testing.T) {
	e := newEnv(t)
	body := chatBody("scira-default", "")

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-pro", body)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodPost, "/v1/chat/completions", "tok-pro", body)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "true", w.Header().Get("X-Cache-Hit"))
	assert.Equal(t, 1, e.provider.calls())
	first, second := e.usage.next(t), e.usage.next(t)
	assert.True(t, first.CacheHit != second.CacheHit)
}

func TestChatRateLimitsAnonymousCallers(t *testing.T) {
	e := newEnv(t)
	ip := header{"X-Forwarded-For", "198.51.100.4"}

	for i := 0; i < 3; i++ {
		w := e.do(http.MethodPost, "/v1/chat/completions", "", chatBody("scira-default", ""), ip)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	w := e.do(http.MethodPost, "/v1/chat/completions", "", chatBody("scira-default", ""), ip)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, reasonRateLimited, decodeError(t, w).Reason)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 4, e.limiter.hits["ip:198.51.100.4"])

	// another address has its own allowance
	w = e.do(http.MethodPost, "/v1/chat/completions", "", chatBody("scira-default", ""), header{"X-Forwarded-For", "198.51.100.5"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatRateLimitBypass(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-pro", chatBody("scira-default", ""))
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodPost, "/v1/chat/completions", "tok-free", chatBody("scira-cerebras-free", ""))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, e.limiter.hits)
}

func TestChatNoBackendAvailable(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-free", chatBody("scira-fireworks-free", ""))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, reasonNoBackend, decodeError(t, w).Reason)
}

func TestChatUpstreamError(t *testing.T) {
	e := newEnv(t)
	e.provider.err = &providers.StatusError{Provider: providers.Groq, Code: http.StatusBadRequest, Body: "bad"}

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-pro", chatBody("scira-default", ""))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	row := e.usage.next(t)
	assert.Equal(t, http.StatusBadGateway, row.StatusCode)
	require.NotNil(t, row.ErrorMessage)
}

func TestChatStreaming(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/chat/completions", "tok-pro", chatBody("scira-default", `,"stream":true`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, events, 4)
	assert.Contains(t, events[0], `"content":"Hel"`)
	assert.Contains(t, events[1], `"content":"lo"`)
	assert.Equal(t, "data: [DONE]", events[3])

	row := e.usage.next(t)
	assert.Equal(t, 5, row.TotalTokens)
}
