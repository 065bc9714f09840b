package providers

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Provider names, also the keys of a Credentials snapshot.
const (
	OpenAI      = "openai"
	Anthropic   = "anthropic"
	Google      = "google"
	Groq        = "groq"
	XAI         = "xai"
	DeepInfra   = "deepinfra"
	Cerebras    = "cerebras"
	Fireworks   = "fireworks"
	HuggingFace = "huggingface"
	ZhipuAI     = "zhipuai"
	Mistral     = "mistral"
)

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model            string                         `json:"model"`
	Messages         []openai.ChatCompletionMessage `json:"messages"`
	Temperature      *float32                       `json:"temperature,omitempty"`
	MaxTokens        *int                           `json:"max_tokens,omitempty"`
	TopP             *float32                       `json:"top_p,omitempty"`
	TopK             *int                           `json:"top_k,omitempty"`
	MinP             *float32                       `json:"min_p,omitempty"`
	FrequencyPenalty *float32                       `json:"frequency_penalty,omitempty"`
	Stream           bool                           `json:"stream,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID                string                        `json:"id"`
	Object            string                        `json:"object"`
	Created           int64                         `json:"created"`
	Model             string                        `json:"model"`
	Choices           []openai.ChatCompletionChoice `json:"choices"`
	Usage             openai.Usage                  `json:"usage"`
	SystemFingerprint string                        `json:"system_fingerprint,omitempty"`
	LatencyMs         int                           `json:"latency_ms,omitempty"`
}

// StreamReader is an interface for streaming responses
type StreamReader interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Provider is the interface all LLM backends implement
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error)
	GetProviderName() string
}

// StatusError is a non-2xx reply from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Code, e.Body)
}
