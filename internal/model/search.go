package model

import "time"

const (
	SearchKindKeyword  = "keyword"
	SearchKindSemantic = "semantic"
	SearchKindChat     = "chat"
)

const (
	SourceSegment    = "segment"
	SourceTranscript = "transcript"
)

// SearchHit is one ranked retrieval result with the join columns denormalized
// so callers never need follow-up lookups.
type SearchHit struct {
	VideoID      int64
	Title        string
	ChannelName  string
	URL          string
	StartSeconds float64
	Similarity   float64
	Excerpt      string
	SourceKind   string
}

type SearchLog struct {
	ID          int64
	Query       string
	Kind        string
	ResultCount int
	Actor       string
	CreatedAt   time.Time
}
