package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Conversation struct {
	ID           int64
	SessionToken string
	CreatedAt    time.Time
}

type Message struct {
	ID             int64
	ConversationID int64
	Role           string
	Content        string
	Citations      []SourceCitation
	CreatedAt      time.Time
}

// SourceCitation is the denormalized grounding reference stored with an
// assistant message.
type SourceCitation struct {
	VideoID      int64   `json:"video_id"`
	Title        string  `json:"title"`
	ChannelName  string  `json:"channel_name"`
	URL          string  `json:"url"`
	StartSeconds float64 `json:"start_seconds"`
	Similarity   float64 `json:"similarity"`
	Excerpt      string  `json:"excerpt"`
}
