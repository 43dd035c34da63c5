package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"clipsearch/internal/model"
)

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `
	id, external_id, channel_id, title, description, published_at,
	duration_seconds, url, thumbnail_url, status, transcription_job_id,
	error_reason, processing_started_at, processing_completed_at, created_at
`

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	var v model.Video
	err := row.Scan(
		&v.ID, &v.ExternalID, &v.ChannelID, &v.Title, &v.Description, &v.PublishedAt,
		&v.DurationSeconds, &v.URL, &v.ThumbnailURL, &v.Status, &v.TranscriptionJobID,
		&v.ErrorReason, &v.ProcessingStartedAt, &v.ProcessingCompletedAt, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateIfNew inserts the video as pending, returning false when the external
// id is already known. Rediscovery is therefore idempotent.
func (r *VideoRepository) CreateIfNew(video *model.Video) (bool, error) {
	err := r.db.QueryRow(`
		INSERT INTO video(external_id, channel_id, title, description, published_at,
			duration_seconds, url, thumbnail_url, status)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`, video.ExternalID, video.ChannelID, video.Title, video.Description, video.PublishedAt,
		video.DurationSeconds, video.URL, video.ThumbnailURL, model.StatusPending).Scan(&video.ID)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// FilterKnownExternalIDs returns which of the given external ids already
// exist, so discovery only fetches details for genuinely new entries.
func (r *VideoRepository) FilterKnownExternalIDs(ids []string) (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT external_id FROM video WHERE external_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return known, nil
}

func (r *VideoRepository) GetByID(id int64) (*model.Video, error) {
	v, err := scanVideo(r.db.QueryRow(`
		SELECT `+videoColumns+` FROM video WHERE id = $1
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return v, err
}

func (r *VideoRepository) GetProcessing() ([]model.Video, error) {
	rows, err := r.db.Query(`
		SELECT `+videoColumns+`
		FROM video
		WHERE status = $1 AND transcription_job_id IS NOT NULL
		ORDER BY processing_started_at ASC
	`, model.StatusProcessing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return videos, nil
}

// UpdateDuration fills in a duration that was not yet known at discovery time.
func (r *VideoRepository) UpdateDuration(id int64, seconds int) error {
	_, err := r.db.Exec(`
		UPDATE video SET duration_seconds = $1 WHERE id = $2
	`, seconds, id)
	return err
}

// MarkProcessing records the provider job id and processing start, but only
// if the row is still pending. The status column is the coordination token;
// the conditional write closes the race between concurrent submitters.
func (r *VideoRepository) MarkProcessing(id int64, jobID string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE video
		SET status = $1, transcription_job_id = $2, error_reason = NULL,
			processing_started_at = $3
		WHERE id = $4 AND status = $5
	`, model.StatusProcessing, jobID, time.Now(), id, model.StatusPending)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCompleted transitions processing → completed. Returns false if another
// reconciler pass already finished the item.
func (r *VideoRepository) MarkCompleted(id int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE video
		SET status = $1, processing_completed_at = $2
		WHERE id = $3 AND status = $4
	`, model.StatusCompleted, time.Now(), id, model.StatusProcessing)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFailed transitions a non-terminal item to failed. Returns false when
// the item already reached a terminal status, so a stale pass can never flip
// a completed video back to failed.
func (r *VideoRepository) MarkFailed(id int64, reason string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE video
		SET status = $1, error_reason = $2, processing_completed_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`, model.StatusFailed, reason, time.Now(), id, model.StatusPending, model.StatusProcessing)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// ResetToPending clears a failed item back to pending for operator retry.
func (r *VideoRepository) ResetToPending(id int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE video
		SET status = $1, error_reason = NULL, transcription_job_id = NULL,
			processing_started_at = NULL, processing_completed_at = NULL
		WHERE id = $2 AND status = $3
	`, model.StatusPending, id, model.StatusFailed)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// ResetAllFailed resets every failed item and returns their ids so callers
// can requeue them for submission.
func (r *VideoRepository) ResetAllFailed() ([]int64, error) {
	rows, err := r.db.Query(`
		UPDATE video
		SET status = $1, error_reason = NULL, transcription_job_id = NULL,
			processing_started_at = NULL, processing_completed_at = NULL
		WHERE status = $2
		RETURNING id
	`, model.StatusPending, model.StatusFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *VideoRepository) List(limit, offset int) ([]model.Video, error) {
	rows, err := r.db.Query(`
		SELECT `+videoColumns+`
		FROM video
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return videos, nil
}

func (r *VideoRepository) ListTotal() (int, error) {
	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM video`).Scan(&total)
	return total, err
}

func (r *VideoRepository) GetDetail(id int64) (*model.VideoDetail, error) {
	var d model.VideoDetail
	var channelName sql.NullString
	err := r.db.QueryRow(`
		SELECT v.id, v.external_id, v.channel_id, v.title, v.description, v.published_at,
			v.duration_seconds, v.url, v.thumbnail_url, v.status, v.transcription_job_id,
			v.error_reason, v.processing_started_at, v.processing_completed_at, v.created_at,
			c.name,
			(SELECT COUNT(*) FROM transcript_segment s WHERE s.video_id = v.id),
			EXISTS(SELECT 1 FROM transcript t WHERE t.video_id = v.id)
		FROM video v
		LEFT JOIN channel c ON c.id = v.channel_id
		WHERE v.id = $1
	`, id).Scan(
		&d.ID, &d.ExternalID, &d.ChannelID, &d.Title, &d.Description, &d.PublishedAt,
		&d.DurationSeconds, &d.URL, &d.ThumbnailURL, &d.Status, &d.TranscriptionJobID,
		&d.ErrorReason, &d.ProcessingStartedAt, &d.ProcessingCompletedAt, &d.CreatedAt,
		&channelName, &d.SegmentCount, &d.HasTranscript,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	d.ChannelName = channelName.String
	return &d, nil
}

func (r *VideoRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM video GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
