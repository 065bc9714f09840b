package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	// Messages API requires max_tokens.
	anthropicDefaultMaxTokens = 4096
)

// AnthropicProvider handles Anthropic Claude API requests
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	TopP        *float32           `json:"top_p,omitempty"`
	TopK        *int               `json:"top_k,omitempty"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// NewAnthropicProvider creates a new Anthropic provider. An empty baseURL
// selects the public API.
func NewAnthropicProvider(baseURL, apiKey string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &AnthropicProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultHTTPClient,
	}
}

func (p *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// convertRequest moves system messages into the system field, which the
// Messages API keeps apart from the conversation.
func (p *AnthropicProvider) convertRequest(req ChatRequest) anthropicRequest {
	out := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   anthropicDefaultMaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		out.MaxTokens = *req.MaxTokens
	}

	var system []string
	for _, msg := range req.Messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			system = append(system, msg.Content)
			continue
		}
		out.Messages = append(out.Messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}
	out.System = strings.Join(system, "\n\n")
	return out
}

// ChatCompletion makes a chat completion request to Anthropic
func (p *AnthropicProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	startTime := time.Now()

	resp, err := postJSON(ctx, p.httpClient, Anthropic, p.baseURL+"/v1/messages", p.headers(), p.convertRequest(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}

	var content strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &ChatResponse{
		ID:      ar.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ar.Model,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content.String(),
			},
			FinishReason: anthropicFinishReason(ar.StopReason),
		}},
		Usage: openai.Usage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		},
		LatencyMs: int(time.Since(startTime).Milliseconds()),
	}, nil
}

// ChatCompletionStream makes a streaming request
func (p *AnthropicProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error) {
	ar := p.convertRequest(req)
	ar.Stream = true

	resp, err := postJSON(ctx, p.httpClient, Anthropic, p.baseURL+"/v1/messages", p.headers(), ar)
	if err != nil {
		return nil, err
	}
	return &anthropicStream{sse: newSSEReader(resp), model: req.Model}, nil
}

type anthropicStream struct {
	sse   *sseReader
	model string
	id    string
	usage anthropicUsage
}

type anthropicEvent struct {
	Type    string `json:"type"`
	Message struct {
		ID    string         `json:"id"`
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage anthropicUsage `json:"usage"`
}

// Recv reads events until one maps onto an OpenAI-style chunk.
func (s *anthropicStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	for {
		data, err := s.sse.next()
		if err != nil {
			return openai.ChatCompletionStreamResponse{}, err
		}

		var ev anthropicEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		chunk := openai.ChatCompletionStreamResponse{
			ID:      s.id,
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   s.model,
		}

		switch ev.Type {
		case "message_start":
			s.id = ev.Message.ID
			s.usage.InputTokens = ev.Message.Usage.InputTokens
			chunk.ID = s.id
			chunk.Choices = []openai.ChatCompletionStreamChoice{{
				Delta: openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant},
			}}
			return chunk, nil
		case "content_block_delta":
			if ev.Delta.Text == "" {
				continue
			}
			chunk.Choices = []openai.ChatCompletionStreamChoice{{
				Delta: openai.ChatCompletionStreamChoiceDelta{Content: ev.Delta.Text},
			}}
			return chunk, nil
		case "message_delta":
			s.usage.OutputTokens = ev.Usage.OutputTokens
			chunk.Choices = []openai.ChatCompletionStreamChoice{{
				FinishReason: anthropicFinishReason(ev.Delta.StopReason),
			}}
			chunk.Usage = &openai.Usage{
				PromptTokens:     s.usage.InputTokens,
				CompletionTokens: s.usage.OutputTokens,
				TotalTokens:      s.usage.InputTokens + s.usage.OutputTokens,
			}
			return chunk, nil
		}
	}
}

func (s *anthropicStream) Close() error {
	return s.sse.Close()
}

func anthropicFinishReason(stop string) openai.FinishReason {
	switch stop {
	case "max_tokens":
		return openai.FinishReasonLength
	case "":
		return ""
	default:
		return openai.FinishReasonStop
	}
}

// GetProviderName returns the provider name
func (p *AnthropicProvider) GetProviderName() string {
	return Anthropic
}
