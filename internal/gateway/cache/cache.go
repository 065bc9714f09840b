package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/providers"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

// ResponseCache is an exact-match cache of non-streaming chat responses.
type ResponseCache struct {
	store   Store
	metrics *metrics.Metrics
}

// NewResponseCache creates a response cache over store. m may be nil.
func NewResponseCache(store Store, m *metrics.Metrics) *ResponseCache {
	return &ResponseCache{store: store, metrics: m}
}

// generateCacheKey hashes everything that can change the answer. The
// catalogue model id is used rather than the backend model, so a hit does
// not depend on which fallback served the first request.
func generateCacheKey(modelID string, req providers.ChatRequest) (string, error) {
	keyData, err := json.Marshal(struct {
		Model            string   `json:"m"`
		Messages         any      `json:"msgs"`
		Temperature      *float32 `json:"t"`
		MaxTokens        *int     `json:"mt"`
		TopP             *float32 `json:"tp"`
		TopK             *int     `json:"tk"`
		MinP             *float32 `json:"mp"`
		FrequencyPenalty *float32 `json:"fp"`
	}{modelID, req.Messages, req.Temperature, req.MaxTokens, req.TopP, req.TopK, req.MinP, req.FrequencyPenalty})
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(keyData)
	return "cache:exact:" + hex.EncodeToString(hash[:]), nil
}

// Get retrieves a cached response
func (c *ResponseCache) Get(ctx context.Context, modelID string, req providers.ChatRequest) (*providers.ChatResponse, bool, error) {
	key, err := generateCacheKey(modelID, req)
	if err != nil {
		return nil, false, err
	}

	val, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.count("miss")
		return nil, false, nil
	}

	var cached providers.ChatResponse
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to deserialize cached response: %w", err)
	}
	c.count("hit")
	return &cached, true, nil
}

// Set stores a response in cache
func (c *ResponseCache) Set(ctx context.Context, modelID string, req providers.ChatRequest, resp *providers.ChatResponse) error {
	key, err := generateCacheKey(modelID, req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to serialize response: %w", err)
	}
	return c.store.Set(ctx, key, data)
}

func (c *ResponseCache) count(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues("response", result).Inc()
	}
}
