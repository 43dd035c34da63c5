package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AssemblyAIClient talks to the hosted speech-to-text service. Submission
// takes a direct media URL, so arbitrarily long media never moves through us.
type AssemblyAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAssemblyAIClient(apiKey, baseURL string) *AssemblyAIClient {
	return &AssemblyAIClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *AssemblyAIClient) Name() string {
	return "assemblyai"
}

func (c *AssemblyAIClient) Submit(ctx context.Context, ref MediaRef) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": ref.URL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assemblyai submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assemblyai submit: %s", readError(resp.Body, resp.StatusCode))
	}

	var parsed aaiTranscript
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("assemblyai submit decode: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("assemblyai submit: response missing transcript id")
	}

	return parsed.ID, nil
}

func (c *AssemblyAIClient) Poll(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assemblyai poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assemblyai poll: %s", readError(resp.Body, resp.StatusCode))
	}

	var parsed aaiTranscript
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("assemblyai poll decode: %w", err)
	}

	job := &Job{ID: jobID}
	switch parsed.Status {
	case "queued":
		job.Status = StatusQueued
	case "processing":
		job.Status = StatusProcessing
	case "error":
		job.Status = StatusError
		job.ErrorDetail = parsed.Error
	case "completed":
		job.Status = StatusCompleted
		job.Result = parsed.toResult()
	default:
		return nil, fmt.Errorf("assemblyai poll: unknown status %q", parsed.Status)
	}

	return job, nil
}

type aaiTranscript struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Text         string    `json:"text"`
	LanguageCode string    `json:"language_code"`
	Error        string    `json:"error"`
	Words        []aaiWord `json:"words"`
}

type aaiWord struct {
	Text  string `json:"text"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

func (t aaiTranscript) toResult() *Result {
	tokens := make([]Token, 0, len(t.Words))
	for _, w := range t.Words {
		// Word timestamps arrive in milliseconds.
		tokens = append(tokens, Token{
			Text:  w.Text,
			Start: float64(w.Start) / 1000,
			End:   float64(w.End) / 1000,
		})
	}
	lang := t.LanguageCode
	if lang == "" {
		lang = "en"
	}
	return &Result{Text: t.Text, Language: lang, Tokens: tokens}
}

func readError(body io.Reader, status int) string {
	var parsed struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
		return fmt.Sprintf("status %d: %s", status, parsed.Error)
	}
	return fmt.Sprintf("status %d", status)
}
