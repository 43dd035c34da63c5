package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clipsearch/internal/model"
	"clipsearch/pkg/catalog"
	"clipsearch/pkg/transcribe"
)

// fakeVideoStore is an in-memory video table covering every store interface
// the pipeline consumes.
type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[int64]*model.Video
}

func newFakeVideoStore(videos ...*model.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[int64]*model.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) GetByID(id int64) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (s *fakeVideoStore) UpdateDuration(id int64, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[id]; ok {
		v.DurationSeconds = &seconds
	}
	return nil
}

func (s *fakeVideoStore) MarkProcessing(id int64, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || v.Status != model.StatusPending {
		return false, nil
	}
	now := time.Now()
	v.Status = model.StatusProcessing
	v.TranscriptionJobID = &jobID
	v.ProcessingStartedAt = &now
	return true, nil
}

func (s *fakeVideoStore) MarkCompleted(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || v.Status != model.StatusProcessing {
		return false, nil
	}
	now := time.Now()
	v.Status = model.StatusCompleted
	v.ProcessingCompletedAt = &now
	return true, nil
}

func (s *fakeVideoStore) MarkFailed(id int64, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return false, fmt.Errorf("video %d not found", id)
	}
	if v.Status != model.StatusPending && v.Status != model.StatusProcessing {
		return false, nil
	}
	v.Status = model.StatusFailed
	v.ErrorReason = &reason
	return true, nil
}

func (s *fakeVideoStore) GetProcessing() ([]model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Video
	for _, v := range s.videos {
		if v.Status == model.StatusProcessing && v.TranscriptionJobID != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeVideoStore) FilterKnownExternalIDs(ids []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[string]bool)
	for _, id := range ids {
		for _, v := range s.videos {
			if v.ExternalID == id {
				known[id] = true
			}
		}
	}
	return known, nil
}

func (s *fakeVideoStore) CreateIfNew(video *model.Video) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v.ExternalID == video.ExternalID {
			return false, nil
		}
	}
	video.ID = int64(len(s.videos) + 1)
	video.Status = model.StatusPending
	copied := *video
	s.videos[video.ID] = &copied
	return true, nil
}

type fakeTranscriptStore struct {
	transcripts map[int64]*model.Transcript
	segments    map[int64][]model.Segment
	saves       int
}

func newFakeTranscriptStore() *fakeTranscriptStore {
	return &fakeTranscriptStore{
		transcripts: make(map[int64]*model.Transcript),
		segments:    make(map[int64][]model.Segment),
	}
}

func (s *fakeTranscriptStore) SaveWithSegments(transcript *model.Transcript, segments []model.Segment) error {
	s.saves++
	transcript.ID = int64(len(s.transcripts) + 1)
	copied := *transcript
	s.transcripts[transcript.VideoID] = &copied
	s.segments[transcript.VideoID] = segments
	return nil
}

func (s *fakeTranscriptStore) ExistsForVideo(videoID int64) (bool, error) {
	_, ok := s.transcripts[videoID]
	return ok, nil
}

// fakeCatalog serves canned channel, upload and detail data, recording calls.
type fakeCatalog struct {
	mu           sync.Mutex
	channels     map[string]catalog.ChannelInfo
	pages        map[string][]catalog.Entry // pageToken → entries; "" is the first page
	nextTokens   map[string]string
	details      map[string]catalog.Details
	detailsCalls [][]string
	listErr      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		channels:   make(map[string]catalog.ChannelInfo),
		pages:      make(map[string][]catalog.Entry),
		nextTokens: make(map[string]string),
		details:    make(map[string]catalog.Details),
	}
}

func (c *fakeCatalog) Channel(ctx context.Context, channelID string) (*catalog.ChannelInfo, error) {
	info, ok := c.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	return &info, nil
}

func (c *fakeCatalog) ListUploads(ctx context.Context, channelID, pageToken string) ([]catalog.Entry, string, error) {
	if c.listErr != nil {
		return nil, "", c.listErr
	}
	return c.pages[pageToken], c.nextTokens[pageToken], nil
}

func (c *fakeCatalog) BatchDetails(ctx context.Context, ids []string) (map[string]catalog.Details, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailsCalls = append(c.detailsCalls, ids)
	out := make(map[string]catalog.Details)
	for _, id := range ids {
		if d, ok := c.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type fakeChannelStore struct {
	channels map[string]*model.Channel
	advanced map[int64]time.Time
}

func newFakeChannelStore(channels ...*model.Channel) *fakeChannelStore {
	s := &fakeChannelStore{
		channels: make(map[string]*model.Channel),
		advanced: make(map[int64]time.Time),
	}
	for _, c := range channels {
		s.channels[c.ExternalID] = c
	}
	return s
}

func (s *fakeChannelStore) GetByExternalID(externalID string) (*model.Channel, error) {
	c, ok := s.channels[externalID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (s *fakeChannelStore) Create(channel *model.Channel) error {
	channel.ID = int64(len(s.channels) + 1)
	copied := *channel
	s.channels[channel.ExternalID] = &copied
	return nil
}

func (s *fakeChannelStore) AdvanceWatermark(id int64, to time.Time) error {
	s.advanced[id] = to
	return nil
}

type fakeQueue struct {
	pushed []string
}

func (q *fakeQueue) Push(id string) error {
	q.pushed = append(q.pushed, id)
	return nil
}

// fakeChain scripts the submission outcome per external id.
type fakeChain struct {
	mu          sync.Mutex
	submissions map[string]*transcribe.Submission
	submitErr   error
	fallbacks   bool
	calls       []string
}

func (c *fakeChain) Submit(ctx context.Context, ref transcribe.MediaRef) (*transcribe.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ref.ExternalID)
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return c.submissions[ref.ExternalID], nil
}

func (c *fakeChain) HasFallbacks() bool {
	return c.fallbacks
}

type fakePoller struct {
	jobs  map[string]*transcribe.Job
	err   error
	calls []string
}

func (p *fakePoller) Poll(ctx context.Context, jobID string) (*transcribe.Job, error) {
	p.calls = append(p.calls, jobID)
	if p.err != nil {
		return nil, p.err
	}
	job, ok := p.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return job, nil
}

type fakeBackfiller struct {
	videoIDs []int64
}

func (b *fakeBackfiller) BackfillVideo(ctx context.Context, videoID int64) (int, error) {
	b.videoIDs = append(b.videoIDs, videoID)
	return 0, nil
}

// fakeEmbedStore backs the Backfiller with scripted missing rows.
type fakeEmbedStore struct {
	missingVideos      []int64
	missingSegments    map[int64][]model.Segment
	missingTranscripts map[int64][]model.Transcript
	segmentVectors     map[int64][]float32
	transcriptVectors  map[int64][]float32
}

func newFakeEmbedStore() *fakeEmbedStore {
	return &fakeEmbedStore{
		missingSegments:    make(map[int64][]model.Segment),
		missingTranscripts: make(map[int64][]model.Transcript),
		segmentVectors:     make(map[int64][]float32),
		transcriptVectors:  make(map[int64][]float32),
	}
}

func (s *fakeEmbedStore) VideosMissingEmbeddings() ([]int64, error) {
	return s.missingVideos, nil
}

func (s *fakeEmbedStore) SegmentsMissingEmbedding(videoID int64, limit int) ([]model.Segment, error) {
	pending := s.missingSegments[videoID]
	var out []model.Segment
	for _, seg := range pending {
		if _, done := s.segmentVectors[seg.ID]; done {
			continue
		}
		out = append(out, seg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeEmbedStore) TranscriptsMissingEmbedding(videoID int64) ([]model.Transcript, error) {
	var out []model.Transcript
	for _, t := range s.missingTranscripts[videoID] {
		if _, done := s.transcriptVectors[t.ID]; done {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeEmbedStore) UpdateSegmentEmbedding(segmentID int64, vec []float32) error {
	s.segmentVectors[segmentID] = vec
	return nil
}

func (s *fakeEmbedStore) UpdateTranscriptEmbedding(transcriptID int64, vec []float32) error {
	s.transcriptVectors[transcriptID] = vec
	return nil
}

type fakeEmbedder struct {
	batches [][]string
	err     error
	failOn  string
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	for _, text := range texts {
		if e.failOn != "" && text == e.failOn {
			return nil, fmt.Errorf("embedding rejected for %q", text)
		}
	}
	e.batches = append(e.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}
