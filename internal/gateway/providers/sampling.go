package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Vendors whose OpenAI-compatible endpoints accept top_k and min_p, which
// go-openai has no request fields for.
var extendedSampling = map[string]bool{
	DeepInfra:   true,
	Fireworks:   true,
	HuggingFace: true,
}

type samplingKey struct{}

type samplingParams struct {
	TopK *int     `json:"top_k,omitempty"`
	MinP *float32 `json:"min_p,omitempty"`
}

func withSampling(ctx context.Context, req ChatRequest) context.Context {
	if req.TopK == nil && req.MinP == nil {
		return ctx
	}
	return context.WithValue(ctx, samplingKey{}, samplingParams{TopK: req.TopK, MinP: req.MinP})
}

// samplingTransport adds the sampling params carried by the request context
// to the outgoing JSON body.
type samplingTransport struct {
	base http.RoundTripper
}

func (t samplingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	params, ok := req.Context().Value(samplingKey{}).(samplingParams)
	if !ok || req.Body == nil {
		return t.base.RoundTrip(req)
	}

	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	if params.TopK != nil {
		body["top_k"], _ = json.Marshal(*params.TopK)
	}
	if params.MinP != nil {
		body["min_p"], _ = json.Marshal(*params.MinP)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(payload))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	out.ContentLength = int64(len(payload))
	return t.base.RoundTrip(out)
}
