package repository

import (
	"database/sql"
	"strings"

	"github.com/pgvector/pgvector-go"

	"clipsearch/internal/model"
)

type SearchRepository struct {
	db *sql.DB
}

func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// SearchSimilar runs the cosine-ranked union over segment and full-transcript
// vectors. Join columns are denormalized into the hit so callers avoid N+1
// lookups.
func (r *SearchRepository) SearchSimilar(vec []float32, threshold float64, limit int) ([]model.SearchHit, error) {
	qv := pgvector.NewVector(vec)

	rows, err := r.db.Query(`
		SELECT video_id, title, channel_name, url, start_seconds, similarity, excerpt, source_kind
		FROM (
			SELECT s.video_id, v.title, COALESCE(c.name, '') AS channel_name, v.url,
				s.start_seconds, 1 - (s.embedding <=> $1) AS similarity,
				s.text AS excerpt, 'segment' AS source_kind
			FROM transcript_segment s
			JOIN video v ON v.id = s.video_id
			LEFT JOIN channel c ON c.id = v.channel_id
			WHERE s.embedding IS NOT NULL

			UNION ALL

			SELECT t.video_id, v.title, COALESCE(c.name, '') AS channel_name, v.url,
				0 AS start_seconds, 1 - (t.embedding <=> $1) AS similarity,
				LEFT(t.full_text, 500) AS excerpt, 'transcript' AS source_kind
			FROM transcript t
			JOIN video v ON v.id = t.video_id
			LEFT JOIN channel c ON c.id = v.channel_id
			WHERE t.embedding IS NOT NULL
		) ranked
		WHERE similarity > $2
		ORDER BY similarity DESC
		LIMIT $3
	`, qv, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHits(rows)
}

// SearchExact is the short-query path: case-insensitive substring match over
// segment text. No vectors involved.
func (r *SearchRepository) SearchExact(query string, limit int) ([]model.SearchHit, error) {
	rows, err := r.db.Query(`
		SELECT s.video_id, v.title, COALESCE(c.name, '') AS channel_name, v.url,
			s.start_seconds, 0 AS similarity, s.text AS excerpt, 'segment' AS source_kind
		FROM transcript_segment s
		JOIN video v ON v.id = s.video_id
		LEFT JOIN channel c ON c.id = v.channel_id
		WHERE s.text ILIKE '%' || $1 || '%'
		ORDER BY v.published_at DESC, s.start_seconds
		LIMIT $2
	`, escapeLike(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHits(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so user text only ever matches
// literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanHits(rows *sql.Rows) ([]model.SearchHit, error) {
	var hits []model.SearchHit
	for rows.Next() {
		var h model.SearchHit
		err := rows.Scan(&h.VideoID, &h.Title, &h.ChannelName, &h.URL,
			&h.StartSeconds, &h.Similarity, &h.Excerpt, &h.SourceKind)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hits, nil
}

// LogSearch appends to the analytics log. Failures here must never fail the
// search itself; callers log and move on.
func (r *SearchRepository) LogSearch(query, kind string, resultCount int, actor string) error {
	_, err := r.db.Exec(`
		INSERT INTO search_log(query, kind, result_count, actor)
		VALUES($1, $2, $3, $4)
	`, query, kind, resultCount, actor)
	return err
}

func (r *SearchRepository) SearchLogTotal() (int, error) {
	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM search_log`).Scan(&total)
	return total, err
}
