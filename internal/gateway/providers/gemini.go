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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider handles Google Gemini API requests
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
	// set on parts produced by thinking models
	Thought bool `json:"thought,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
	ResponseID    string            `json:"responseId"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// NewGeminiProvider creates a new Gemini provider. An empty baseURL selects
// the public v1beta API.
func NewGeminiProvider(baseURL, apiKey string) *GeminiProvider {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultHTTPClient,
	}
}

func (p *GeminiProvider) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.apiKey}
}

// ChatCompletion makes a chat completion request to Gemini
func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	startTime := time.Now()

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, req.Model)
	resp, err := postJSON(ctx, p.httpClient, Google, url, p.headers(), p.convertRequest(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}

	out := p.convertResponse(gr, req.Model)
	out.LatencyMs = int(time.Since(startTime).Milliseconds())
	return out, nil
}

// ChatCompletionStream makes a streaming request
func (p *GeminiProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error) {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.baseURL, req.Model)
	resp, err := postJSON(ctx, p.httpClient, Google, url, p.headers(), p.convertRequest(req))
	if err != nil {
		return nil, err
	}

	return &geminiStream{
		sse:   newSSEReader(resp),
		model: req.Model,
		id:    fmt.Sprintf("gemini-stream-%d", time.Now().UnixNano()),
	}, nil
}

type geminiStream struct {
	sse   *sseReader
	model string
	id    string
}

func (s *geminiStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	for {
		data, err := s.sse.next()
		if err != nil {
			return openai.ChatCompletionStreamResponse{}, err
		}

		var gr geminiResponse
		if err := json.Unmarshal(data, &gr); err != nil {
			continue
		}
		return s.convertChunk(gr), nil
	}
}

func (s *geminiStream) Close() error {
	return s.sse.Close()
}

func (s *geminiStream) convertChunk(resp geminiResponse) openai.ChatCompletionStreamResponse {
	chunk := openai.ChatCompletionStreamResponse{
		ID:      s.id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   s.model,
	}

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		text, thought := splitGeminiParts(candidate.Content.Parts)

		choice := openai.ChatCompletionStreamChoice{
			Index: candidate.Index,
			Delta: openai.ChatCompletionStreamChoiceDelta{
				Content:          text,
				ReasoningContent: thought,
			},
			FinishReason: geminiFinishReason(candidate.FinishReason),
		}
		if candidate.Content.Role != "" {
			choice.Delta.Role = openai.ChatMessageRoleAssistant
		}
		chunk.Choices = []openai.ChatCompletionStreamChoice{choice}
	}

	if resp.UsageMetadata.TotalTokenCount > 0 {
		chunk.Usage = &openai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return chunk
}

func (p *GeminiProvider) convertRequest(req ChatRequest) geminiRequest {
	gr := geminiRequest{Contents: make([]geminiContent, 0, len(req.Messages))}

	var system []geminiPart
	for _, msg := range req.Messages {
		switch msg.Role {
		case openai.ChatMessageRoleSystem:
			system = append(system, geminiPart{Text: msg.Content})
			continue
		case openai.ChatMessageRoleAssistant:
			gr.Contents = append(gr.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			gr.Contents = append(gr.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		gr.SystemInstruction = &geminiContent{Parts: system}
	}

	if req.Temperature != nil || req.MaxTokens != nil || req.TopP != nil || req.TopK != nil {
		gr.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
			MaxOutputTokens: req.MaxTokens,
		}
	}
	return gr
}

func (p *GeminiProvider) convertResponse(resp geminiResponse, model string) *ChatResponse {
	var text, thought, finish string
	if len(resp.Candidates) > 0 {
		text, thought = splitGeminiParts(resp.Candidates[0].Content.Parts)
		finish = resp.Candidates[0].FinishReason
	}

	id := resp.ResponseID
	if id == "" {
		id = fmt.Sprintf("gemini-%d", time.Now().UnixNano())
	}

	reason := geminiFinishReason(finish)
	if reason == "" {
		reason = openai.FinishReasonStop
	}

	return &ChatResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:             openai.ChatMessageRoleAssistant,
				Content:          text,
				ReasoningContent: thought,
			},
			FinishReason: reason,
		}},
		Usage: openai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
	}
}

func splitGeminiParts(parts []geminiPart) (text, thought string) {
	var t, r strings.Builder
	for _, part := range parts {
		if part.Thought {
			r.WriteString(part.Text)
		} else {
			t.WriteString(part.Text)
		}
	}
	return t.String(), r.String()
}

func geminiFinishReason(reason string) openai.FinishReason {
	switch reason {
	case "":
		return ""
	case "MAX_TOKENS":
		return openai.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT":
		return openai.FinishReasonContentFilter
	default:
		return openai.FinishReasonStop
	}
}

// GetProviderName returns the provider name
func (p *GeminiProvider) GetProviderName() string {
	return Google
}
