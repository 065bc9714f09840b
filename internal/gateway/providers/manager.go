package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

// Manager resolves model ids to backends and handles failover
type Manager struct {
	resolver    *Resolver
	credentials func() Credentials
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewManager creates a provider manager. credentials is called once per
// request; m may be nil.
func NewManager(resolver *Resolver, credentials func() Credentials, m *metrics.Metrics, log *zap.Logger) *Manager {
	return &Manager{
		resolver:    resolver,
		credentials: credentials,
		metrics:     m,
		logger:      logger.OrDefault(log),
	}
}

// Resolve returns the backend a request for modelID would try first.
func (m *Manager) Resolve(modelID string) (*Backend, error) {
	return m.resolver.Resolve(modelID, m.credentials())
}

// ChatCompletion calls the first candidate backend and moves down the chain
// on retryable errors. The returned bool reports whether a fallback served
// the request.
func (m *Manager) ChatCompletion(ctx context.Context, modelID string, req ChatRequest) (*ChatResponse, *Backend, bool, error) {
	candidates, err := m.candidates(modelID)
	if err != nil {
		return nil, nil, false, err
	}

	var lastErr error
	for i := range candidates {
		backend := &candidates[i]
		req.Model = backend.Model

		start := time.Now()
		resp, err := backend.Client.ChatCompletion(ctx, req)
		m.observe(backend, start, err)
		if err == nil {
			if i > 0 {
				m.record(backend.Provider, "failover")
			}
			return resp, backend, i > 0, nil
		}

		lastErr = err
		if !m.shouldFailover(ctx, backend, err, i, len(candidates)) {
			return nil, backend, i > 0, err
		}
	}
	return nil, &candidates[len(candidates)-1], len(candidates) > 1,
		fmt.Errorf("all backends failed for model %s: %w", modelID, lastErr)
}

// ChatCompletionStream opens a stream, failing over only while the stream
// has not started.
func (m *Manager) ChatCompletionStream(ctx context.Context, modelID string, req ChatRequest) (StreamReader, *Backend, bool, error) {
	candidates, err := m.candidates(modelID)
	if err != nil {
		return nil, nil, false, err
	}

	req.Stream = true
	var lastErr error
	for i := range candidates {
		backend := &candidates[i]
		req.Model = backend.Model

		stream, err := backend.Client.ChatCompletionStream(ctx, req)
		if err == nil {
			if i > 0 {
				m.record(backend.Provider, "failover")
			}
			return stream, backend, i > 0, nil
		}

		m.record(backend.Provider, "error")
		lastErr = err
		if !m.shouldFailover(ctx, backend, err, i, len(candidates)) {
			return nil, backend, i > 0, err
		}
	}
	return nil, &candidates[len(candidates)-1], len(candidates) > 1,
		fmt.Errorf("all backends failed for model %s: %w", modelID, lastErr)
}

func (m *Manager) candidates(modelID string) ([]Backend, error) {
	candidates, err := m.resolver.Candidates(modelID, m.credentials())
	if err != nil {
		m.record("none", "unavailable")
		m.logger.Warn("no backend for model", zap.String("model_id", modelID), zap.Error(err))
		return nil, err
	}
	m.record(candidates[0].Provider, "selected")
	return candidates, nil
}

func (m *Manager) shouldFailover(ctx context.Context, backend *Backend, err error, i, n int) bool {
	if ctx.Err() != nil || !isRetryableError(err) {
		return false
	}
	if i+1 < n {
		m.logger.Warn("backend failed, trying next",
			zap.String("model_id", backend.ModelID),
			zap.String("provider", backend.Provider),
			zap.String("backend_model", backend.Model),
			zap.Error(err),
		)
	}
	return true
}

func (m *Manager) observe(backend *Backend, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	m.metrics.ChatLatency.WithLabelValues(backend.Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		m.record(backend.Provider, "error")
	}
}

func (m *Manager) record(provider, outcome string) {
	if m.metrics != nil {
		m.metrics.BackendResolutions.WithLabelValues(provider, outcome).Inc()
	}
}

// isRetryableError checks if an error should trigger failover: rate limits,
// server errors and timeouts.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, ErrNoBackendAvailable) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.Code)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
