package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/cache"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/providers"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

const (
	maxChatBody     = 4 << 20
	rateLimitWindow = 24 * time.Hour
)

// RateLimiter counts hits in a fixed window. *redis.Client implements it.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// UsageLogger records chat requests. *database.DB implements it.
type UsageLogger interface {
	LogChatUsage(ctx context.Context, u *models.ChatUsage) error
}

// Limits are the daily message allowances.
type Limits struct {
	Anonymous     int
	Authenticated int
}

type ChatHandler struct {
	registry *registry.Registry
	access   *access.Controller
	manager  *providers.Manager
	cache    *cache.ResponseCache
	limiter  RateLimiter
	limits   Limits
	usage    UsageLogger
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewChatHandler wires the chat endpoint. cache, limiter, usage and m may
// be nil.
func NewChatHandler(
	reg *registry.Registry,
	ctrl *access.Controller,
	manager *providers.Manager,
	responses *cache.ResponseCache,
	limiter RateLimiter,
	limits Limits,
	usage UsageLogger,
	m *metrics.Metrics,
	log *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		registry: reg,
		access:   ctrl,
		manager:  manager,
		cache:    responses,
		limiter:  limiter,
		limits:   limits,
		usage:    usage,
		metrics:  m,
		logger:   logger.OrDefault(log),
	}
}

// HandleChatCompletion handles POST /v1/chat/completions
func (h *ChatHandler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	ent := EntitlementFrom(ctx)

	var req providers.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", reasonBadRequest)
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "model and messages are required", reasonBadRequest)
		return
	}
	modelID := req.Model

	if d := h.access.CanUse(modelID, ent); !d.Allowed {
		h.count(modelID, d.Reason)
		status, _ := classify(d.Err())
		writeError(w, status, d.Err().Error(), d.Reason)
		return
	}

	if !h.allow(w, r, modelID, ent) {
		h.count(modelID, reasonRateLimited)
		writeError(w, http.StatusTooManyRequests, "daily message limit reached", reasonRateLimited)
		return
	}

	h.applyModelDefaults(modelID, &req)

	if req.Stream {
		h.handleStreamingChat(w, r, ent, modelID, req)
		return
	}

	// Check cache if enabled
	if h.cache != nil {
		cached, hit, err := h.cache.Get(ctx, modelID, req)
		if err != nil {
			h.logger.Warn("response cache read failed", zap.Error(err))
		}
		if hit {
			cached.LatencyMs = int(time.Since(startTime).Milliseconds())
			w.Header().Set("X-Cache-Hit", "true")
			h.count(modelID, "cached")
			h.logRequest(ent, modelID, nil, cached, time.Since(startTime), true, false, http.StatusOK, nil)
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, backend, failoverUsed, err := h.manager.ChatCompletion(ctx, modelID, req)
	if err != nil {
		status, reason := classify(err)
		h.logger.Error("chat completion failed",
			zap.String("model_id", modelID),
			zap.Bool("failover", failoverUsed),
			zap.Error(err),
		)
		h.count(modelID, reason)
		h.logRequest(ent, modelID, backend, nil, time.Since(startTime), false, failoverUsed, status, err)
		writeErr(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, modelID, req, resp); err != nil {
			h.logger.Warn("response cache write failed", zap.Error(err))
		}
	}

	totalLatency := int(time.Since(startTime).Milliseconds())
	resp.LatencyMs = totalLatency

	w.Header().Set("X-Cache-Hit", "false")
	w.Header().Set("X-Provider", backend.Provider)
	w.Header().Set("X-Latency-Ms", strconv.Itoa(totalLatency))
	if failoverUsed {
		w.Header().Set("X-Failover", "true")
	}

	h.count(modelID, "ok")
	h.logRequest(ent, modelID, backend, resp, time.Since(startTime), false, failoverUsed, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamingChat handles streaming chat completions
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, ent access.Entitlement, modelID string, req providers.ChatRequest) {
	ctx := r.Context()
	startTime := time.Now()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", reasonInternal)
		return
	}

	stream, backend, failoverUsed, err := h.manager.ChatCompletionStream(ctx, modelID, req)
	if err != nil {
		status, reason := classify(err)
		h.count(modelID, reason)
		h.logRequest(ent, modelID, backend, nil, time.Since(startTime), false, failoverUsed, status, err)
		writeErr(w, err)
		return
	}
	defer stream.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Provider", backend.Provider)
	if failoverUsed {
		w.Header().Set("X-Failover", "true")
	}
	w.WriteHeader(http.StatusOK)

	var usage openai.Usage
	var streamErr error
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			streamErr = err
			data, _ := json.Marshal(errorBody{Error: err.Error(), Reason: reasonUpstream})
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			break
		}

		if chunk.Usage != nil {
			usage = *chunk.Usage
		}

		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	if streamErr == nil {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
		h.count(modelID, "ok")
	} else {
		h.count(modelID, reasonUpstream)
	}

	resp := &providers.ChatResponse{Usage: usage}
	h.logRequest(ent, modelID, backend, resp, time.Since(startTime), false, failoverUsed, http.StatusOK, streamErr)
}

// allow enforces the daily message allowance. Pro callers and free
// unlimited models are not counted, and limiting is off without a limiter.
func (h *ChatHandler) allow(w http.ResponseWriter, r *http.Request, modelID string, ent access.Entitlement) bool {
	if h.limiter == nil || ent.Pro || h.access.ShouldBypassRateLimit(modelID, ent) {
		return true
	}

	key, limit := "ip:"+clientIP(r), h.limits.Anonymous
	if ent.Authenticated {
		key, limit = "user:"+ent.UserID, h.limits.Authenticated
	}
	if limit <= 0 {
		return true
	}

	exceeded, remaining, err := h.limiter.CheckRateLimit(r.Context(), key, limit, rateLimitWindow)
	if err != nil {
		// fail open
		h.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return true
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if exceeded {
		w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
		return false
	}
	return true
}

// applyModelDefaults clamps max_tokens to the model ceiling and fills
// sampling parameters the caller left out.
func (h *ChatHandler) applyModelDefaults(modelID string, req *providers.ChatRequest) {
	ceiling := h.registry.MaxOutputTokens(modelID)
	if req.MaxTokens != nil && *req.MaxTokens > ceiling {
		clamped := ceiling
		req.MaxTokens = &clamped
	}

	desc, err := h.registry.GetModel(modelID)
	if err != nil {
		return
	}
	p := desc.Params
	if req.Temperature == nil {
		req.Temperature = p.Temperature
	}
	if req.TopP == nil {
		req.TopP = p.TopP
	}
	if req.TopK == nil {
		req.TopK = p.TopK
	}
	if req.MinP == nil {
		req.MinP = p.MinP
	}
	if req.FrequencyPenalty == nil {
		req.FrequencyPenalty = p.FrequencyPenalty
	}
}

func (h *ChatHandler) count(modelID, status string) {
	if h.metrics != nil {
		h.metrics.ChatRequests.WithLabelValues(modelID, status).Inc()
	}
}

// logRequest logs the request to the database
func (h *ChatHandler) logRequest(ent access.Entitlement, modelID string, backend *providers.Backend, resp *providers.ChatResponse, duration time.Duration, cacheHit, failoverUsed bool, status int, err error) {
	if h.usage == nil {
		return
	}

	u := &models.ChatUsage{
		ModelID:      modelID,
		LatencyMs:    int(duration.Milliseconds()),
		CacheHit:     cacheHit,
		FailoverUsed: failoverUsed,
		StatusCode:   status,
		CreatedAt:    time.Now().Add(-duration),
	}
	if ent.UserID != "" {
		userID := ent.UserID
		u.UserID = &userID
	}
	if backend != nil {
		u.Provider = backend.Provider
		u.BackendModel = backend.Model
	}
	if resp != nil {
		u.PromptTokens = resp.Usage.PromptTokens
		u.CompletionTokens = resp.Usage.CompletionTokens
		u.TotalTokens = resp.Usage.TotalTokens
	}
	if err != nil {
		errMsg := err.Error()
		u.ErrorMessage = &errMsg
	}

	// Log asynchronously to avoid blocking
	go func() {
		if err := h.usage.LogChatUsage(context.Background(), u); err != nil {
			h.logger.Warn("failed to log chat usage", zap.Error(err))
		}
	}()
}
