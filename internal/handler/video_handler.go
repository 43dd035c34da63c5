package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clipsearch/internal/model"
	"clipsearch/internal/pipeline"
	"clipsearch/pkg/catalog"
)

type VideoStore interface {
	List(limit, offset int) ([]model.Video, error)
	ListTotal() (int, error)
	GetDetail(id int64) (*model.VideoDetail, error)
	CreateIfNew(video *model.Video) (bool, error)
	ResetToPending(id int64) (bool, error)
	ResetAllFailed() ([]int64, error)
	CountByStatus() (map[string]int, error)
}

type SearchLogStore interface {
	SearchLogTotal() (int, error)
}

// TranscriptionSubmitter runs the submission gates and provider handoff for
// one video.
type TranscriptionSubmitter interface {
	Submit(ctx context.Context, videoID int64) error
}

type TranscriptionReconciler interface {
	Run(ctx context.Context) pipeline.ReconcileResult
}

type EmbeddingSweeper interface {
	BackfillAll(ctx context.Context) pipeline.BackfillReport
}

// VideoQueue feeds video ids to the submit worker.
type VideoQueue interface {
	Push(id string) error
}

type VideoHandler struct {
	repository VideoStore
	searchLogs SearchLogStore
	catalog    catalog.Client
	submitter  TranscriptionSubmitter
	reconciler TranscriptionReconciler
	backfiller EmbeddingSweeper
	queue      VideoQueue
}

func NewVideoHandler(repository VideoStore, searchLogs SearchLogStore, cat catalog.Client, submitter TranscriptionSubmitter, reconciler TranscriptionReconciler, backfiller EmbeddingSweeper, queue VideoQueue) *VideoHandler {
	return &VideoHandler{
		repository: repository,
		searchLogs: searchLogs,
		catalog:    cat,
		submitter:  submitter,
		reconciler: reconciler,
		backfiller: backfiller,
		queue:      queue,
	}
}

func toVideoResponse(v model.Video) VideoResponse {
	res := VideoResponse{
		ID:              v.ID,
		ExternalID:      v.ExternalID,
		Title:           v.Title,
		Description:     v.Description,
		PublishedAt:     v.PublishedAt.Format(time.RFC3339),
		DurationSeconds: v.DurationSeconds,
		URL:             v.URL,
		ThumbnailURL:    v.ThumbnailURL,
		Status:          v.Status,
	}
	if v.ErrorReason != nil {
		res.ErrorReason = *v.ErrorReason
	}
	return res
}

func (h *VideoHandler) GetVideos(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	videos, err := h.repository.List(limit, offset)
	if err != nil {
		slog.Error("error fetching videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.ListTotal()
	if err != nil {
		slog.Error("error fetching video total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := VideoListResponse{
		Videos: make([]VideoResponse, 0, len(videos)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, v := range videos {
		res.Videos = append(res.Videos, toVideoResponse(v))
	}

	c.JSON(http.StatusOK, res)
}

func (h *VideoHandler) GetVideo(c *gin.Context) {
	videoID, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.repository.GetDetail(videoID)
	if err != nil {
		slog.Error("error fetching video", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	c.JSON(http.StatusOK, VideoDetailResponse{
		VideoResponse: toVideoResponse(detail.Video),
		ChannelName:   detail.ChannelName,
		SegmentCount:  detail.SegmentCount,
		HasTranscript: detail.HasTranscript,
	})
}

// CreateVideo registers a user-submitted video by URL. The video belongs to
// no monitored channel; it flows through the same pipeline as discovered ones.
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	externalID := extractVideoID(req.URL)
	if externalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized video URL"})
		return
	}

	details, err := h.catalog.BatchDetails(c.Request.Context(), []string{externalID})
	if err != nil {
		slog.Error("error resolving submitted video", "external_id", externalID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not resolve video"})
		return
	}
	d, ok := details[externalID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found at source"})
		return
	}

	video := model.Video{
		ExternalID:      externalID,
		Title:           d.Title,
		Description:     d.Description,
		PublishedAt:     d.PublishedAt,
		DurationSeconds: d.DurationSeconds,
		URL:             "https://www.youtube.com/watch?v=" + externalID,
		ThumbnailURL:    d.ThumbnailURL,
	}
	created, err := h.repository.CreateIfNew(&video)
	if err != nil {
		slog.Error("error creating video", "external_id", externalID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "Video already registered"})
		return
	}

	if h.queue != nil {
		if err := h.queue.Push(strconv.FormatInt(video.ID, 10)); err != nil {
			slog.Error("error queueing submitted video", "video_id", video.ID, "error", err)
		}
	}

	video.Status = model.StatusPending
	c.JSON(http.StatusCreated, toVideoResponse(video))
}

// SubmitVideo runs one pending video through the gates and into transcription
// synchronously, without waiting for the submit worker.
func (h *VideoHandler) SubmitVideo(c *gin.Context) {
	videoID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.submitter.Submit(c.Request.Context(), videoID); err != nil {
		slog.Error("error submitting video", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Submission failed"})
		return
	}

	detail, err := h.repository.GetDetail(videoID)
	if err != nil || detail == nil {
		c.JSON(http.StatusOK, gin.H{"submitted": true})
		return
	}
	c.JSON(http.StatusOK, toVideoResponse(detail.Video))
}

// RetryVideo moves one failed video back to pending and requeues it.
func (h *VideoHandler) RetryVideo(c *gin.Context) {
	videoID, ok := pathID(c)
	if !ok {
		return
	}

	reset, err := h.repository.ResetToPending(videoID)
	if err != nil {
		slog.Error("error resetting video", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !reset {
		c.JSON(http.StatusConflict, gin.H{"error": "Video is not in failed status"})
		return
	}

	if h.queue != nil {
		if err := h.queue.Push(strconv.FormatInt(videoID, 10)); err != nil {
			slog.Error("error requeueing video", "video_id", videoID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// RetryFailed resets every failed video and requeues them all.
func (h *VideoHandler) RetryFailed(c *gin.Context) {
	ids, err := h.repository.ResetAllFailed()
	if err != nil {
		slog.Error("error resetting failed videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if h.queue != nil {
		for _, id := range ids {
			if err := h.queue.Push(strconv.FormatInt(id, 10)); err != nil {
				slog.Error("error requeueing video", "video_id", id, "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"reset": len(ids)})
}

// Reconcile runs one reconciliation pass inline.
func (h *VideoHandler) Reconcile(c *gin.Context) {
	result := h.reconciler.Run(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"completed":     result.Completed,
		"failed":        result.Failed,
		"timed_out":     result.TimedOut,
		"still_running": result.StillRunning,
		"errors":        result.Errors,
	})
}

// Backfill sweeps every video with missing embeddings inline.
func (h *VideoHandler) Backfill(c *gin.Context) {
	report := h.backfiller.BackfillAll(c.Request.Context())
	errs := make(map[string]string, len(report.Errors))
	for id, err := range report.Errors {
		errs[strconv.FormatInt(id, 10)] = err.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"videos":  report.Videos,
		"vectors": report.Vectors,
		"errors":  errs,
	})
}

func (h *VideoHandler) GetHealth(c *gin.Context) {
	counts, err := h.repository.CountByStatus()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	res := gin.H{
		"status":   "healthy",
		"database": "connected",
		"videos":   counts,
	}
	if h.searchLogs != nil {
		if total, err := h.searchLogs.SearchLogTotal(); err == nil {
			res["searches"] = total
		}
	}

	c.JSON(http.StatusOK, res)
}

func pathID(c *gin.Context) (int64, bool) {
	id := c.Param("id")
	videoID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		slog.Error("invalid id", "id", id, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return videoID, true
}

// extractVideoID pulls the 11-character video id out of the common YouTube
// URL shapes (watch, youtu.be, shorts, embed) or accepts a bare id.
func extractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if isVideoID(raw) {
			return raw
		}
		return ""
	}

	if strings.Contains(u.Host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if isVideoID(id) {
			return id
		}
		return ""
	}

	if id := u.Query().Get("v"); isVideoID(id) {
		return id
	}

	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			id := strings.Trim(rest, "/")
			if isVideoID(id) {
				return id
			}
		}
	}

	return ""
}

func isVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	param := c.Query(name)

	if param == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(param)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", param, "error", err)
		return defaultValue
	}

	return parsed
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
