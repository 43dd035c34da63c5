package model

import "time"

type Transcript struct {
	ID        int64
	VideoID   int64
	FullText  string
	Language  string
	CreatedAt time.Time
}

// Segment is a fixed-window slice of a transcript. Adjacent segments overlap
// on purpose; start/end reflect the actual bounds of the speech they contain.
type Segment struct {
	ID           int64
	TranscriptID int64
	VideoID      int64
	StartSeconds float64
	EndSeconds   float64
	Text         string
	CreatedAt    time.Time
}

type Keyword struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}
