package repository

import (
	"database/sql"
	"time"

	"clipsearch/internal/model"
)

type ChannelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) GetAll() ([]model.Channel, error) {
	rows, err := r.db.Query(`
		SELECT id, external_id, name, url, last_synced_at, created_at
		FROM channel
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var c model.Channel
		err := rows.Scan(&c.ID, &c.ExternalID, &c.Name, &c.URL, &c.LastSyncedAt, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return channels, nil
}

func (r *ChannelRepository) GetByExternalID(externalID string) (*model.Channel, error) {
	var c model.Channel
	err := r.db.QueryRow(`
		SELECT id, external_id, name, url, last_synced_at, created_at
		FROM channel
		WHERE external_id = $1
	`, externalID).Scan(&c.ID, &c.ExternalID, &c.Name, &c.URL, &c.LastSyncedAt, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *ChannelRepository) Create(channel *model.Channel) error {
	return r.db.QueryRow(`
		INSERT INTO channel(external_id, name, url)
		VALUES($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, channel.ExternalID, channel.Name, channel.URL).Scan(&channel.ID)
}

// AdvanceWatermark moves the channel's checkpoint forward. Caller passes
// "now" rather than the max discovered timestamp to tolerate clock skew and
// late-arriving entries.
func (r *ChannelRepository) AdvanceWatermark(id int64, to time.Time) error {
	_, err := r.db.Exec(`
		UPDATE channel SET last_synced_at = $1
		WHERE id = $2 AND last_synced_at < $1
	`, to, id)
	return err
}
