package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Base URLs of vendors that speak the OpenAI chat completions protocol.
var compatibleBaseURLs = map[string]string{
	Groq:        "https://api.groq.com/openai/v1",
	XAI:         "https://api.x.ai/v1",
	DeepInfra:   "https://api.deepinfra.com/v1/openai",
	Cerebras:    "https://api.cerebras.ai/v1",
	Fireworks:   "https://api.fireworks.ai/inference/v1",
	HuggingFace: "https://router.huggingface.co/v1",
	ZhipuAI:     "https://api.z.ai/api/paas/v4",
	Mistral:     "https://api.mistral.ai/v1",
}

// OpenAIProvider talks to OpenAI or any OpenAI-compatible endpoint
type OpenAIProvider struct {
	name   string
	client *openai.Client
	// native OpenAI wants max_completion_tokens and supports usage in streams
	native bool
	// forwards top_k and min_p
	sampling bool
}

// NewOpenAIProvider creates a provider for api.openai.com
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		name:   OpenAI,
		client: openai.NewClient(apiKey),
		native: true,
	}
}

// NewCompatibleProvider creates a provider for an OpenAI-compatible vendor.
// An empty baseURL selects the vendor's public endpoint.
func NewCompatibleProvider(name, baseURL, apiKey string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = compatibleBaseURLs[name]
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if extendedSampling[name] {
		cfg.HTTPClient = &http.Client{Transport: samplingTransport{base: http.DefaultTransport}}
	}
	return &OpenAIProvider{
		name:     name,
		client:   openai.NewClientWithConfig(cfg),
		sampling: extendedSampling[name],
	}
}

func (p *OpenAIProvider) requestContext(ctx context.Context, req ChatRequest) context.Context {
	if !p.sampling {
		return ctx
	}
	return withSampling(ctx, req)
}

func (p *OpenAIProvider) buildRequest(req ChatRequest) openai.ChatCompletionRequest {
	r := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}

	if req.Temperature != nil {
		r.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		r.TopP = *req.TopP
	}
	if req.FrequencyPenalty != nil {
		r.FrequencyPenalty = *req.FrequencyPenalty
	}
	if req.MaxTokens != nil {
		if p.native {
			r.MaxCompletionTokens = *req.MaxTokens
		} else {
			r.MaxTokens = *req.MaxTokens
		}
	}
	return r
}

// ChatCompletion makes a chat completion request
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	startTime := time.Now()

	resp, err := p.client.CreateChatCompletion(p.requestContext(ctx, req), p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	return &ChatResponse{
		ID:                resp.ID,
		Object:            resp.Object,
		Created:           resp.Created,
		Model:             resp.Model,
		Choices:           resp.Choices,
		Usage:             resp.Usage,
		SystemFingerprint: resp.SystemFingerprint,
		LatencyMs:         int(time.Since(startTime).Milliseconds()),
	}, nil
}

// ChatCompletionStream creates a streaming chat completion request
func (p *OpenAIProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error) {
	r := p.buildRequest(req)
	r.Stream = true
	if p.native {
		r.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	stream, err := p.client.CreateChatCompletionStream(p.requestContext(ctx, req), r)
	if err != nil {
		return nil, fmt.Errorf("%s streaming API error: %w", p.name, err)
	}

	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (r *openAIStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	return r.stream.Recv()
}

func (r *openAIStream) Close() error {
	r.stream.Close()
	return nil
}

// GetProviderName returns the provider name
func (p *OpenAIProvider) GetProviderName() string {
	return p.name
}
