package handler

type SearchRequest struct {
	Query     string  `json:"query"`
	Threshold float64 `json:"threshold"`
	Limit     int     `json:"limit"`
}

type SearchHitResponse struct {
	VideoID      int64   `json:"video_id"`
	Title        string  `json:"title"`
	ChannelName  string  `json:"channel_name"`
	URL          string  `json:"url"`
	StartSeconds float64 `json:"start_seconds"`
	Similarity   float64 `json:"similarity"`
	Excerpt      string  `json:"excerpt"`
	SourceKind   string  `json:"source_kind"`
}

type SearchResponse struct {
	Query   string              `json:"query"`
	Results []SearchHitResponse `json:"results"`
	Total   int                 `json:"total"`
}

type ChatRequest struct {
	ConversationID int64  `json:"conversation_id"`
	SessionToken   string `json:"session_token"`
	Message        string `json:"message"`
}

type CitationResponse struct {
	VideoID      int64   `json:"video_id"`
	Title        string  `json:"title"`
	ChannelName  string  `json:"channel_name"`
	URL          string  `json:"url"`
	StartSeconds float64 `json:"start_seconds"`
	Similarity   float64 `json:"similarity"`
	Excerpt      string  `json:"excerpt"`
}

type ChatResponse struct {
	ConversationID int64              `json:"conversation_id"`
	SessionToken   string             `json:"session_token"`
	Reply          string             `json:"reply"`
	Citations      []CitationResponse `json:"citations"`
}

type VideoResponse struct {
	ID              int64  `json:"id"`
	ExternalID      string `json:"external_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	PublishedAt     string `json:"published_at"`
	DurationSeconds *int   `json:"duration_seconds"`
	URL             string `json:"url"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	Status          string `json:"status"`
	ErrorReason     string `json:"error_reason,omitempty"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type VideoDetailResponse struct {
	VideoResponse
	ChannelName   string `json:"channel_name,omitempty"`
	SegmentCount  int    `json:"segment_count"`
	HasTranscript bool   `json:"has_transcript"`
}

type CreateVideoRequest struct {
	URL string `json:"url"`
}

type KeywordResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type KeywordRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
