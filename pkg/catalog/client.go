package catalog

import (
	"context"
	"time"
)

// Entry is one upload listed on a channel page, newest first.
type Entry struct {
	ExternalID   string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// Details carries the per-video fields only available from the batch details
// endpoint. Duration stays nil while the source is still processing the
// upload or the video is an unterminated live broadcast.
type Details struct {
	ExternalID      string
	Title           string
	Description     string
	PublishedAt     time.Time
	ThumbnailURL    string
	DurationSeconds *int
	Live            bool
}

type ChannelInfo struct {
	ExternalID string
	Name       string
	URL        string
}

type Client interface {
	Channel(ctx context.Context, channelID string) (*ChannelInfo, error)
	// ListUploads returns one page of the channel's uploads plus the token for
	// the next page ("" when exhausted). Pages are ordered newest first.
	ListUploads(ctx context.Context, channelID, pageToken string) ([]Entry, string, error)
	// BatchDetails resolves duration and live state for up to 50 ids per call.
	BatchDetails(ctx context.Context, ids []string) (map[string]Details, error)
}
