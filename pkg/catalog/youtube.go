package catalog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	pageSize = 50
	// MaxBatchIDs is the details endpoint's cap on ids per call.
	MaxBatchIDs = 50
)

type YouTubeClient struct {
	svc     *youtube.Service
	limiter *rate.Limiter
}

func NewYouTubeClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeClient{
		svc: svc,
		// Conservative: well under the default quota to leave room for the
		// details calls that follow pagination.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}, nil
}

func (c *YouTubeClient) Channel(ctx context.Context, channelID string) (*ChannelInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *youtube.ChannelListResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.svc.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("channel lookup %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}

	return &ChannelInfo{
		ExternalID: channelID,
		Name:       resp.Items[0].Snippet.Title,
		URL:        "https://www.youtube.com/channel/" + channelID,
	}, nil
}

// uploadsPlaylistID derives the channel's uploads playlist id. YouTube encodes
// it as the channel id with the "UC" prefix swapped for "UU", which saves one
// channels.list call per sweep.
func uploadsPlaylistID(channelID string) string {
	if len(channelID) > 2 && channelID[:2] == "UC" {
		return "UU" + channelID[2:]
	}
	return channelID
}

func (c *YouTubeClient) ListUploads(ctx context.Context, channelID, pageToken string) ([]Entry, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	call := c.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(uploadsPlaylistID(channelID)).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	var resp *youtube.PlaylistItemListResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, "", fmt.Errorf("list uploads %s: %w", channelID, err)
	}

	entries := make([]Entry, 0, len(resp.Items))
	for _, item := range resp.Items {
		publishedAt, perr := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt)
		if perr != nil {
			publishedAt, _ = time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		}

		entries = append(entries, Entry{
			ExternalID:   item.ContentDetails.VideoId,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			PublishedAt:  publishedAt,
			ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
		})
	}

	return entries, resp.NextPageToken, nil
}

func (c *YouTubeClient) BatchDetails(ctx context.Context, ids []string) (map[string]Details, error) {
	details := make(map[string]Details, len(ids))

	for start := 0; start < len(ids); start += MaxBatchIDs {
		end := start + MaxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var resp *youtube.VideoListResponse
		err := withRetry(ctx, func() error {
			var callErr error
			resp, callErr = c.svc.Videos.List([]string{"snippet", "contentDetails"}).
				Id(chunk...).
				Context(ctx).
				Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("batch details: %w", err)
		}

		for _, item := range resp.Items {
			d := Details{
				ExternalID:   item.Id,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
				Live:         item.Snippet.LiveBroadcastContent == "live" || item.Snippet.LiveBroadcastContent == "upcoming",
			}
			if publishedAt, perr := time.Parse(time.RFC3339, item.Snippet.PublishedAt); perr == nil {
				d.PublishedAt = publishedAt
			}
			if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
				if secs, derr := ParseISODuration(item.ContentDetails.Duration); derr == nil && secs > 0 {
					d.DurationSeconds = &secs
				}
			}
			details[item.Id] = d
		}
	}

	return details, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.High != nil:
		return t.High.Url
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	}
	return ""
}
