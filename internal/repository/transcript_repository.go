package repository

import (
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"clipsearch/internal/model"
)

type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// SaveWithSegments persists the transcript and its segments atomically so a
// half-written transcript can never look complete to retrieval.
func (r *TranscriptRepository) SaveWithSegments(transcript *model.Transcript, segments []model.Segment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO transcript(video_id, full_text, language)
		VALUES($1, $2, $3)
		RETURNING id
	`, transcript.VideoID, transcript.FullText, transcript.Language).Scan(&transcript.ID)
	if err != nil {
		return err
	}

	for i := range segments {
		err = tx.QueryRow(`
			INSERT INTO transcript_segment(transcript_id, video_id, start_seconds, end_seconds, text)
			VALUES($1, $2, $3, $4, $5)
			RETURNING id
		`, transcript.ID, transcript.VideoID, segments[i].StartSeconds, segments[i].EndSeconds, segments[i].Text).
			Scan(&segments[i].ID)
		if err != nil {
			return err
		}
		segments[i].TranscriptID = transcript.ID
	}

	return tx.Commit()
}

func (r *TranscriptRepository) ExistsForVideo(videoID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM transcript WHERE video_id = $1)
	`, videoID).Scan(&exists)
	return exists, err
}

func (r *TranscriptRepository) SegmentsMissingEmbedding(videoID int64, limit int) ([]model.Segment, error) {
	rows, err := r.db.Query(`
		SELECT id, transcript_id, video_id, start_seconds, end_seconds, text
		FROM transcript_segment
		WHERE video_id = $1 AND embedding IS NULL
		ORDER BY start_seconds
		LIMIT $2
	`, videoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []model.Segment
	for rows.Next() {
		var s model.Segment
		err := rows.Scan(&s.ID, &s.TranscriptID, &s.VideoID, &s.StartSeconds, &s.EndSeconds, &s.Text)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

func (r *TranscriptRepository) TranscriptsMissingEmbedding(videoID int64) ([]model.Transcript, error) {
	rows, err := r.db.Query(`
		SELECT id, video_id, full_text, language
		FROM transcript
		WHERE video_id = $1 AND embedding IS NULL
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transcripts []model.Transcript
	for rows.Next() {
		var t model.Transcript
		if err := rows.Scan(&t.ID, &t.VideoID, &t.FullText, &t.Language); err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transcripts, nil
}

// VideosMissingEmbeddings lists every video that still has unembedded
// segments or transcripts, for the batch-all backfill.
func (r *TranscriptRepository) VideosMissingEmbeddings() ([]int64, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT video_id FROM transcript_segment WHERE embedding IS NULL
		UNION
		SELECT DISTINCT video_id FROM transcript WHERE embedding IS NULL
	`)
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

func (r *TranscriptRepository) UpdateSegmentEmbedding(segmentID int64, vec []float32) error {
	_, err := r.db.Exec(`
		UPDATE transcript_segment SET embedding = $1 WHERE id = $2
	`, pgvector.NewVector(vec), segmentID)
	return err
}

func (r *TranscriptRepository) UpdateTranscriptEmbedding(transcriptID int64, vec []float32) error {
	_, err := r.db.Exec(`
		UPDATE transcript SET embedding = $1 WHERE id = $2
	`, pgvector.NewVector(vec), transcriptID)
	return err
}
