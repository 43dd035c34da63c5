package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ModalClient calls the self-hosted GPU whisper worker. The worker downloads
// the media itself, chunks long audio, and returns the merged transcript in a
// single response, so the call can run for minutes.
type ModalClient struct {
	endpointURL string
	httpClient  *http.Client
}

func NewModalClient(endpointURL string) *ModalClient {
	return &ModalClient{
		endpointURL: endpointURL,
		httpClient:  &http.Client{Timeout: 60 * time.Minute},
	}
}

func (c *ModalClient) Name() string {
	return "modal"
}

func (c *ModalClient) Transcribe(ctx context.Context, ref MediaRef) (*Result, error) {
	body, err := json.Marshal(map[string]string{"video_url": ref.URL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("modal transcribe: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Text     string `json:"text"`
		Error    string `json:"error"`
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("modal transcribe decode: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("modal transcribe: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("modal transcribe: status %d", resp.StatusCode)
	}

	tokens := make([]Token, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{Text: text, Start: s.Start, End: s.End})
	}

	return &Result{Text: strings.TrimSpace(parsed.Text), Language: "en", Tokens: tokens}, nil
}
