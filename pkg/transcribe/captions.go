package transcribe

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimedTextURL = "https://video.google.com/timedtext"

// CaptionsClient fetches officially published captions for a video. Fast and
// free, but captions may simply not exist and cue timing is coarser than
// word-level ASR output.
type CaptionsClient struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

func NewCaptionsClient(language string) *CaptionsClient {
	if language == "" {
		language = "en"
	}
	return &CaptionsClient{
		baseURL:    defaultTimedTextURL,
		language:   language,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *CaptionsClient) Name() string {
	return "captions"
}

func (c *CaptionsClient) Transcribe(ctx context.Context, ref MediaRef) (*Result, error) {
	u := fmt.Sprintf("%s?lang=%s&v=%s", c.baseURL, url.QueryEscape(c.language), url.QueryEscape(ref.ExternalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captions fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captions fetch: status %d", resp.StatusCode)
	}

	var doc timedText
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("captions parse: %w", err)
	}
	if len(doc.Cues) == 0 {
		return nil, fmt.Errorf("no captions published for %s", ref.ExternalID)
	}

	tokens := make([]Token, 0, len(doc.Cues))
	var full strings.Builder
	for _, cue := range doc.Cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:  text,
			Start: cue.Start,
			End:   cue.Start + cue.Duration,
		})
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("captions for %s are empty", ref.ExternalID)
	}

	return &Result{Text: full.String(), Language: c.language, Tokens: tokens}, nil
}

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Cues    []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}
