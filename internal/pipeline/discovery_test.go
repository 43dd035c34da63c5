package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"clipsearch/internal/model"
	"clipsearch/pkg/catalog"
)

func TestDiscoveryStopsAtWatermark(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	channel := &model.Channel{ID: 7, ExternalID: "UCabc", Name: "Test Channel", LastSyncedAt: watermark}
	channels := newFakeChannelStore(channel)
	videos := newFakeVideoStore()

	cat := newFakeCatalog()
	cat.pages[""] = []catalog.Entry{
		{ExternalID: "new2", Title: "Newest", PublishedAt: watermark.Add(48 * time.Hour)},
		{ExternalID: "new1", Title: "Newer", PublishedAt: watermark.Add(24 * time.Hour)},
		{ExternalID: "old1", Title: "Already synced", PublishedAt: watermark},
	}
	// A second page exists, but the watermark hit on page one must stop
	// pagination before it is ever requested.
	cat.nextTokens[""] = "page2"
	cat.pages["page2"] = []catalog.Entry{
		{ExternalID: "old2", PublishedAt: watermark.Add(-24 * time.Hour)},
	}
	dur := 300
	cat.details["new1"] = catalog.Details{ExternalID: "new1", DurationSeconds: &dur}
	cat.details["new2"] = catalog.Details{ExternalID: "new2", DurationSeconds: &dur}

	queue := &fakeQueue{}
	d := NewDiscovery(cat, channels, videos, queue, []string{"UCabc"})
	fixedNow := watermark.Add(72 * time.Hour)
	d.now = func() time.Time { return fixedNow }

	result := d.Run(context.Background())

	assert.Equal(t, len(result.Errors), 0)
	assert.Equal(t, result.NewVideos, 2)
	assert.Equal(t, len(queue.pushed), 2)
	assert.Equal(t, channels.advanced[7], fixedNow)

	known, _ := videos.FilterKnownExternalIDs([]string{"new1", "new2", "old1", "old2"})
	assert.Equal(t, known["new1"], true)
	assert.Equal(t, known["new2"], true)
	assert.Equal(t, known["old1"], false)
	assert.Equal(t, known["old2"], false)
}

func TestDiscoverySkipsKnownVideos(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	channel := &model.Channel{ID: 1, ExternalID: "UCabc", LastSyncedAt: watermark}
	channels := newFakeChannelStore(channel)
	chID := int64(1)
	videos := newFakeVideoStore(&model.Video{
		ID: 42, ExternalID: "seen", ChannelID: &chID, Status: model.StatusCompleted,
	})

	cat := newFakeCatalog()
	cat.pages[""] = []catalog.Entry{
		{ExternalID: "fresh", PublishedAt: watermark.Add(2 * time.Hour)},
		{ExternalID: "seen", PublishedAt: watermark.Add(time.Hour)},
	}

	queue := &fakeQueue{}
	d := NewDiscovery(cat, channels, videos, queue, []string{"UCabc"})

	result := d.Run(context.Background())

	assert.Equal(t, result.NewVideos, 1)
	assert.Equal(t, len(queue.pushed), 1)
	// Details were only fetched for the genuinely new id.
	assert.Equal(t, len(cat.detailsCalls), 1)
	assert.Equal(t, cat.detailsCalls[0], []string{"fresh"})
}

func TestDiscoveryCreatesUnknownChannel(t *testing.T) {
	channels := newFakeChannelStore()
	videos := newFakeVideoStore()

	cat := newFakeCatalog()
	cat.channels["UCnew"] = catalog.ChannelInfo{ExternalID: "UCnew", Name: "Fresh Channel", URL: "https://www.youtube.com/channel/UCnew"}
	cat.pages[""] = nil

	d := NewDiscovery(cat, channels, videos, &fakeQueue{}, []string{"UCnew"})

	result := d.Run(context.Background())

	assert.Equal(t, len(result.Errors), 0)
	created, _ := channels.GetByExternalID("UCnew")
	assert.NotEqual(t, created, nil)
	assert.Equal(t, created.Name, "Fresh Channel")
	// An empty sweep still advances the watermark.
	_, advanced := channels.advanced[created.ID]
	assert.Equal(t, advanced, true)
}

func TestDiscoveryIsolatesChannelFailures(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	good := &model.Channel{ID: 1, ExternalID: "UCgood", LastSyncedAt: watermark}
	channels := newFakeChannelStore(good)
	videos := newFakeVideoStore()

	cat := newFakeCatalog()
	// "UCbroken" is unknown to both the store and the catalog, so its sweep
	// fails at channel resolution.
	cat.pages[""] = []catalog.Entry{
		{ExternalID: "v1", PublishedAt: watermark.Add(time.Hour)},
	}

	d := NewDiscovery(cat, channels, videos, &fakeQueue{}, []string{"UCbroken", "UCgood"})

	result := d.Run(context.Background())

	assert.Equal(t, len(result.Errors), 1)
	assert.Equal(t, result.Errors[0].ChannelID, "UCbroken")
	assert.Equal(t, result.NewVideos, 1)
}

func TestDiscoveryRunTwiceAddsNothing(t *testing.T) {
	watermark := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	channel := &model.Channel{ID: 3, ExternalID: "UCabc", LastSyncedAt: watermark}
	channels := newFakeChannelStore(channel)
	videos := newFakeVideoStore()

	cat := newFakeCatalog()
	cat.pages[""] = []catalog.Entry{
		{ExternalID: "v1", PublishedAt: watermark.Add(time.Hour)},
	}

	d := NewDiscovery(cat, channels, videos, &fakeQueue{}, []string{"UCabc"})

	first := d.Run(context.Background())
	second := d.Run(context.Background())

	assert.Equal(t, first.NewVideos, 1)
	assert.Equal(t, second.NewVideos, 0)
}
