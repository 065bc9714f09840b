package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

type fakeProvider struct {
	name   string
	err    error
	resp   *ChatResponse
	stream StreamReader
	models []string
}

func (p *fakeProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.models = append(p.models, req.Model)
	if p.err != nil {
		return nil, p.err
	}
	if p.resp != nil {
		return p.resp, nil
	}
	return &ChatResponse{ID: p.name, Model: req.Model}, nil
}

func (p *fakeProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error) {
	p.models = append(p.models, req.Model)
	if p.err != nil {
		return nil, p.err
	}
	return p.stream, nil
}

func (p *fakeProvider) GetProviderName() string { return p.name }

type fakeStream struct {
	chunks []openai.ChatCompletionStreamResponse
	i      int
	closed bool
}

func (s *fakeStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if s.i >= len(s.chunks) {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func textStream(parts ...string) *fakeStream {
	s := &fakeStream{}
	for _, p := range parts {
		s.chunks = append(s.chunks, openai.ChatCompletionStreamResponse{
			ID: "chunk",
			Choices: []openai.ChatCompletionStreamChoice{{
				Delta: openai.ChatCompletionStreamChoiceDelta{Content: p},
			}},
		})
	}
	return s
}

func newTestManager(t *testing.T, primary, fallback *fakeProvider) (*Manager, *metrics.Metrics) {
	t.Helper()
	factories := map[string]Factory{
		OpenAI:    func(string) Provider { return primary },
		Anthropic: func(string) Provider { return fallback },
	}
	r, err := NewResolver(factories, bind("chat",
		try(OpenAI, "gpt-4o"),
		last(Anthropic, "claude-sonnet-4-5"),
	))
	require.NoError(t, err)

	m := metrics.New()
	creds := func() Credentials { return Credentials{OpenAI: "sk-live"} }
	return NewManager(r, creds, m, nil), m
}

func TestManagerUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: OpenAI}
	fallback := &fakeProvider{name: Anthropic}
	mgr, _ := newTestManager(t, primary, fallback)

	resp, backend, failover, err := mgr.ChatCompletion(context.Background(), "chat", ChatRequest{})
	require.NoError(t, err)
	assert.False(t, failover)
	assert.Equal(t, OpenAI, backend.Provider)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Empty(t, fallback.models)
}

func TestManagerFailsOverOnRetryableError(t *testing.T) {
	primary := &fakeProvider{name: OpenAI, err: &StatusError{Provider: OpenAI, Code: 429}}
	fallback := &fakeProvider{name: Anthropic}
	mgr, m := newTestManager(t, primary, fallback)

	resp, backend, failover, err := mgr.ChatCompletion(context.Background(), "chat", ChatRequest{})
	require.NoError(t, err)
	assert.True(t, failover)
	assert.Equal(t, Anthropic, backend.Provider)
	assert.Equal(t, "claude-sonnet-4-5", resp.Model)
	assert.Equal(t, []string{"gpt-4o"}, primary.models)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendResolutions.WithLabelValues(Anthropic, "failover")))
}

func TestManagerStopsOnClientError(t *testing.T) {
	primary := &fakeProvider{name: OpenAI, err: &StatusError{Provider: OpenAI, Code: 400}}
	fallback := &fakeProvider{name: Anthropic}
	mgr, _ := newTestManager(t, primary, fallback)

	_, backend, failover, err := mgr.ChatCompletion(context.Background(), "chat", ChatRequest{})
	require.Error(t, err)
	assert.False(t, failover)
	assert.Equal(t, OpenAI, backend.Provider)
	assert.Empty(t, fallback.models)
}

func TestManagerAllBackendsFail(t *testing.T) {
	primary := &fakeProvider{name: OpenAI, err: &StatusError{Provider: OpenAI, Code: 503}}
	fallback := &fakeProvider{name: Anthropic, err: &StatusError{Provider: Anthropic, Code: 529}}
	mgr, _ := newTestManager(t, primary, fallback)

	_, _, _, err := mgr.ChatCompletion(context.Background(), "chat", ChatRequest{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 529, se.Code)
}

func TestManagerUnknownModel(t *testing.T) {
	mgr, m := newTestManager(t, &fakeProvider{name: OpenAI}, &fakeProvider{name: Anthropic})

	_, backend, _, err := mgr.ChatCompletion(context.Background(), "nope", ChatRequest{})
	assert.ErrorIs(t, err, ErrNoBackendAvailable)
	assert.Nil(t, backend)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendResolutions.WithLabelValues("none", "unavailable")))
}

func TestManagerStreamFailover(t *testing.T) {
	primary := &fakeProvider{name: OpenAI, err: fmt.Errorf("openai: %w", context.DeadlineExceeded)}
	fallback := &fakeProvider{name: Anthropic, stream: textStream("hi")}
	mgr, _ := newTestManager(t, primary, fallback)

	stream, backend, failover, err := mgr.ChatCompletionStream(context.Background(), "chat", ChatRequest{})
	require.NoError(t, err)
	assert.True(t, failover)
	assert.Equal(t, Anthropic, backend.Provider)

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hi", chunk.Choices[0].Delta.Content)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &StatusError{Code: 429}, true},
		{"server error", fmt.Errorf("wrapped: %w", &StatusError{Code: 502}), true},
		{"bad request", &StatusError{Code: 400}, false},
		{"openai api 500", &openai.APIError{HTTPStatusCode: 500}, true},
		{"openai api 401", &openai.APIError{HTTPStatusCode: 401}, false},
		{"openai request 429", &openai.RequestError{HTTPStatusCode: 429}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"no backend", ErrNoBackendAvailable, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
