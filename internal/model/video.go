package model

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Error reasons recorded on failed videos. Gate failures are not retried
// automatically; they reflect a source-side condition an operator must clear.
const (
	ReasonVideoNotFound         = "video_not_found"
	ReasonCurrentlyLive         = "currently_live"
	ReasonNoDuration            = "no_duration"
	ReasonUnreachableAudio      = "unreachable_audio"
	ReasonSubmissionFailed      = "assemblyai_submission_failed"
	ReasonNoUsableText          = "no_usable_text"
	ReasonProcessingTimeout     = "processing_timeout"
	ReasonAudioExtractionFailed = "audio_extraction_failed"
	ReasonAllProvidersFailed    = "modal_and_captions_failed"
	ReasonProviderErrorPrefix   = "assemblyai_error: "
)

type Channel struct {
	ID           int64
	ExternalID   string
	Name         string
	URL          string
	LastSyncedAt time.Time
	CreatedAt    time.Time
}

type Video struct {
	ID                    int64
	ExternalID            string
	ChannelID             *int64
	Title                 string
	Description           string
	PublishedAt           time.Time
	DurationSeconds       *int
	URL                   string
	ThumbnailURL          string
	Status                string
	TranscriptionJobID    *string
	ErrorReason           *string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	CreatedAt             time.Time
}

// VideoDetail is a video joined with transcript availability for the detail view.
type VideoDetail struct {
	Video
	ChannelName   string
	SegmentCount  int
	HasTranscript bool
}
