package providers

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ExtractReasoning moves <tag>...</tag> segments of the model output into
// ReasoningContent. With startWithReasoning the output is treated as
// reasoning until the first closing tag, for models that omit the opening
// one.
func ExtractReasoning(tag string, startWithReasoning bool) Middleware {
	return func(next Provider) Provider {
		return &reasoningProvider{
			next:  next,
			open:  "<" + tag + ">",
			close: "</" + tag + ">",
			start: startWithReasoning,
		}
	}
}

type reasoningProvider struct {
	next  Provider
	open  string
	close string
	start bool
}

func (p *reasoningProvider) GetProviderName() string {
	return p.next.GetProviderName()
}

func (p *reasoningProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := p.next.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range resp.Choices {
		msg := &resp.Choices[i].Message
		content, reasoning := p.split(msg.Content)
		msg.Content = content
		if reasoning != "" {
			msg.ReasoningContent = joinNonEmpty(msg.ReasoningContent, reasoning)
		}
	}
	return resp, nil
}

// split separates reasoning segments from the answer text.
func (p *reasoningProvider) split(text string) (content, reasoning string) {
	if p.start && !strings.HasPrefix(strings.TrimSpace(text), p.open) {
		text = p.open + text
	}

	var answer, thoughts []string
	for {
		i := strings.Index(text, p.open)
		if i < 0 {
			answer = append(answer, text)
			break
		}
		answer = append(answer, text[:i])
		text = text[i+len(p.open):]

		j := strings.Index(text, p.close)
		if j < 0 {
			// unterminated: the rest is reasoning
			thoughts = append(thoughts, text)
			break
		}
		thoughts = append(thoughts, text[:j])
		text = text[j+len(p.close):]
	}

	return strings.TrimSpace(strings.Join(answer, "")), joinNonEmpty(thoughts...)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}

func (p *reasoningProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (StreamReader, error) {
	stream, err := p.next.ChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &reasoningStream{
		next:      stream,
		open:      p.open,
		close:     p.close,
		reasoning: p.start,
		stripOpen: p.start,
	}, nil
}

// reasoningStream routes deltas between Content and ReasoningContent as
// tags go by. A tag split across chunks is held back until it completes.
type reasoningStream struct {
	next      StreamReader
	open      string
	close     string
	reasoning bool
	// drop a leading open tag when already starting in reasoning
	stripOpen bool
	pending   string
	last      openai.ChatCompletionStreamResponse
	done      bool
}

func (s *reasoningStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if s.done {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}

	chunk, err := s.next.Recv()
	if errors.Is(err, io.EOF) {
		s.done = true
		if s.pending == "" {
			return openai.ChatCompletionStreamResponse{}, io.EOF
		}
		return s.flush(), nil
	}
	if err != nil {
		return chunk, err
	}

	s.last = chunk
	for i := range chunk.Choices {
		delta := &chunk.Choices[i].Delta
		content, reasoning := s.feed(delta.Content)
		delta.Content = content
		delta.ReasoningContent += reasoning
	}
	return chunk, nil
}

// flush emits text still held back at end of stream.
func (s *reasoningStream) flush() openai.ChatCompletionStreamResponse {
	out := openai.ChatCompletionStreamResponse{
		ID:      s.last.ID,
		Object:  s.last.Object,
		Created: s.last.Created,
		Model:   s.last.Model,
	}
	delta := openai.ChatCompletionStreamChoiceDelta{}
	if s.reasoning {
		delta.ReasoningContent = s.pending
	} else {
		delta.Content = s.pending
	}
	s.pending = ""
	out.Choices = []openai.ChatCompletionStreamChoice{{Delta: delta}}
	return out
}

func (s *reasoningStream) feed(text string) (content, reasoning string) {
	text = s.pending + text
	s.pending = ""

	if s.stripOpen && text != "" {
		if strings.HasPrefix(s.open, text) && len(text) < len(s.open) {
			s.pending = text
			return "", ""
		}
		text = strings.TrimPrefix(text, s.open)
		s.stripOpen = false
	}

	var c, r strings.Builder
	emit := func(t string) {
		if s.reasoning {
			r.WriteString(t)
		} else {
			c.WriteString(t)
		}
	}

	for text != "" {
		tag := s.open
		if s.reasoning {
			tag = s.close
		}
		if i := strings.Index(text, tag); i >= 0 {
			emit(text[:i])
			text = text[i+len(tag):]
			s.reasoning = !s.reasoning
			continue
		}
		k := partialTagSuffix(text, tag)
		emit(text[:len(text)-k])
		s.pending = text[len(text)-k:]
		break
	}
	return c.String(), r.String()
}

// partialTagSuffix returns the length of the longest suffix of text that is
// a proper prefix of tag.
func partialTagSuffix(text, tag string) int {
	n := len(tag) - 1
	if n > len(text) {
		n = len(text)
	}
	for ; n > 0; n-- {
		if strings.HasSuffix(text, tag[:n]) {
			return n
		}
	}
	return 0
}

func (s *reasoningStream) Close() error {
	return s.next.Close()
}
