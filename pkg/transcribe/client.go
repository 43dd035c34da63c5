package transcribe

import "context"

// MediaRef identifies the media to transcribe. URL is the public watch/media
// URL; ExternalID is the catalog id, which the caption tier needs.
type MediaRef struct {
	URL        string
	ExternalID string
}

// Token is one time-coded unit of source text: a word from ASR output or a
// whole cue from official captions. Times are seconds.
type Token struct {
	Text  string
	Start float64
	End   float64
}

type Result struct {
	Text     string
	Language string
	Tokens   []Token
}

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Job is the observable state of an asynchronous transcription.
type Job struct {
	ID          string
	Status      string
	Result      *Result
	ErrorDetail string
}

// AsyncProvider is the two-phase transcription contract: submit returns an
// opaque job id, poll reports progress until a terminal status.
type AsyncProvider interface {
	Name() string
	Submit(ctx context.Context, ref MediaRef) (string, error)
	Poll(ctx context.Context, jobID string) (*Job, error)
}

// Transcriber is the synchronous contract used by fallback tiers that return
// a transcript in one call.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, ref MediaRef) (*Result, error)
}
