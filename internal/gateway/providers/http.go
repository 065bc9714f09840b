package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

// postJSON sends body as JSON and returns the open response on 200. Any
// other status is drained into a *StatusError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Provider: provider, Code: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}

// sseReader yields the payload of each "data:" line of a server-sent
// event stream.
type sseReader struct {
	reader *bufio.Reader
	body   io.Closer
}

func newSSEReader(resp *http.Response) *sseReader {
	return &sseReader{reader: bufio.NewReader(resp.Body), body: resp.Body}
}

func (s *sseReader) next() ([]byte, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && (line == "" || err != io.EOF) {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			data = strings.TrimSpace(data)
			if data != "" && data != "[DONE]" {
				return []byte(data), nil
			}
		}
		if err == io.EOF {
			return nil, io.EOF
		}
	}
}

func (s *sseReader) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}
