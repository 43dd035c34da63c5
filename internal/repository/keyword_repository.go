package repository

import (
	"database/sql"

	"clipsearch/internal/model"
)

type KeywordRepository struct {
	db *sql.DB
}

func NewKeywordRepository(db *sql.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) List(activeOnly bool) ([]model.Keyword, error) {
	query := `
		SELECT id, name, description, active, created_at
		FROM keyword
		ORDER BY name
	`
	if activeOnly {
		query = `
			SELECT id, name, description, active, created_at
			FROM keyword
			WHERE active
			ORDER BY name
		`
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []model.Keyword
	for rows.Next() {
		var k model.Keyword
		var description sql.NullString
		if err := rows.Scan(&k.ID, &k.Name, &description, &k.Active, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.Description = description.String
		keywords = append(keywords, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keywords, nil
}

func (r *KeywordRepository) Create(keyword *model.Keyword) error {
	return r.db.QueryRow(`
		INSERT INTO keyword(name, description, active)
		VALUES($1, $2, true)
		RETURNING id, created_at
	`, keyword.Name, keyword.Description).Scan(&keyword.ID, &keyword.CreatedAt)
}

func (r *KeywordRepository) Update(keyword *model.Keyword) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE keyword SET name = $1, description = $2, active = $3
		WHERE id = $4
	`, keyword.Name, keyword.Description, keyword.Active, keyword.ID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// Deactivate soft-deletes a keyword; rows are never removed.
func (r *KeywordRepository) Deactivate(id int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE keyword SET active = false WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
