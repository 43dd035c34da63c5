package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"clipsearch/internal/model"
	"clipsearch/pkg/catalog"
)

type ChannelStore interface {
	GetByExternalID(externalID string) (*model.Channel, error)
	Create(channel *model.Channel) error
	AdvanceWatermark(id int64, to time.Time) error
}

type DiscoveryVideoStore interface {
	FilterKnownExternalIDs(ids []string) (map[string]bool, error)
	CreateIfNew(video *model.Video) (bool, error)
}

// SubmitQueue hands newly discovered video ids to the submission worker.
type SubmitQueue interface {
	Push(id string) error
}

type ChannelError struct {
	ChannelID string
	Err       error
}

type DiscoveryResult struct {
	NewVideos int
	Errors    []ChannelError
}

// Discovery sweeps the configured channels, inserting uploads newer than each
// channel's watermark as pending videos.
type Discovery struct {
	catalog    catalog.Client
	channels   ChannelStore
	videos     DiscoveryVideoStore
	queue      SubmitQueue
	channelIDs []string
	now        func() time.Time
}

func NewDiscovery(cat catalog.Client, channels ChannelStore, videos DiscoveryVideoStore, queue SubmitQueue, channelIDs []string) *Discovery {
	return &Discovery{
		catalog:    cat,
		channels:   channels,
		videos:     videos,
		queue:      queue,
		channelIDs: channelIDs,
		now:        time.Now,
	}
}

// Run sweeps every channel. One channel's failure never aborts the others;
// failures come back collected in the result.
func (d *Discovery) Run(ctx context.Context) DiscoveryResult {
	var result DiscoveryResult

	for _, channelID := range d.channelIDs {
		added, err := d.sweepChannel(ctx, channelID)
		if err != nil {
			slog.Error("channel sweep failed", "channel", channelID, "error", err)
			result.Errors = append(result.Errors, ChannelError{ChannelID: channelID, Err: err})
			continue
		}
		result.NewVideos += added
	}

	return result
}

func (d *Discovery) sweepChannel(ctx context.Context, channelID string) (int, error) {
	channel, err := d.channels.GetByExternalID(channelID)
	if err != nil {
		return 0, fmt.Errorf("load channel: %w", err)
	}
	if channel == nil {
		info, err := d.catalog.Channel(ctx, channelID)
		if err != nil {
			return 0, fmt.Errorf("resolve channel: %w", err)
		}
		channel = &model.Channel{ExternalID: info.ExternalID, Name: info.Name, URL: info.URL}
		if err := d.channels.Create(channel); err != nil {
			return 0, fmt.Errorf("create channel: %w", err)
		}
	}

	newIDs, entryByID, err := d.collectNewEntries(ctx, channel)
	if err != nil {
		return 0, err
	}

	added := 0
	if len(newIDs) > 0 {
		details, err := d.catalog.BatchDetails(ctx, newIDs)
		if err != nil {
			return 0, fmt.Errorf("fetch details: %w", err)
		}
		added, err = d.insertVideos(channel, newIDs, entryByID, details)
		if err != nil {
			return 0, err
		}
	}

	// Advance to "now", not the max discovered timestamp, so clock skew and
	// late-arriving entries never open a permanent gap.
	if err := d.channels.AdvanceWatermark(channel.ID, d.now()); err != nil {
		return added, fmt.Errorf("advance watermark: %w", err)
	}

	slog.Info("channel sweep complete", "channel", channelID, "new_videos", added)
	return added, nil
}

// collectNewEntries paginates the uploads newest-first and stops at the first
// entry at or before the watermark. Upload pages are non-increasing in
// publish time, so everything past that point is already known.
func (d *Discovery) collectNewEntries(ctx context.Context, channel *model.Channel) ([]string, map[string]catalog.Entry, error) {
	var candidates []string
	entryByID := make(map[string]catalog.Entry)

	pageToken := ""
	for {
		entries, next, err := d.catalog.ListUploads(ctx, channel.ExternalID, pageToken)
		if err != nil {
			return nil, nil, fmt.Errorf("list uploads: %w", err)
		}

		reachedWatermark := false
		for _, entry := range entries {
			if !entry.PublishedAt.After(channel.LastSyncedAt) {
				reachedWatermark = true
				break
			}
			candidates = append(candidates, entry.ExternalID)
			entryByID[entry.ExternalID] = entry
		}

		if reachedWatermark || next == "" {
			break
		}
		pageToken = next
	}

	if len(candidates) == 0 {
		return nil, entryByID, nil
	}

	known, err := d.videos.FilterKnownExternalIDs(candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("filter known ids: %w", err)
	}

	newIDs := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !known[id] {
			newIDs = append(newIDs, id)
		}
	}

	return newIDs, entryByID, nil
}

func (d *Discovery) insertVideos(channel *model.Channel, ids []string, entryByID map[string]catalog.Entry, details map[string]catalog.Details) (int, error) {
	added := 0
	for _, id := range ids {
		entry := entryByID[id]
		video := model.Video{
			ExternalID:   id,
			ChannelID:    &channel.ID,
			Title:        entry.Title,
			Description:  entry.Description,
			PublishedAt:  entry.PublishedAt,
			URL:          watchURL(id),
			ThumbnailURL: entry.ThumbnailURL,
		}
		if det, ok := details[id]; ok {
			video.DurationSeconds = det.DurationSeconds
		}

		created, err := d.videos.CreateIfNew(&video)
		if err != nil {
			return added, fmt.Errorf("insert video %s: %w", id, err)
		}
		if !created {
			continue
		}
		added++

		if d.queue != nil {
			if err := d.queue.Push(strconv.FormatInt(video.ID, 10)); err != nil {
				slog.Error("error pushing to submit queue", "video_id", video.ID, "error", err)
			}
		}
	}
	return added, nil
}

func watchURL(externalID string) string {
	return "https://www.youtube.com/watch?v=" + externalID
}
