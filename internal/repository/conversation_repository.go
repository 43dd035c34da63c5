package repository

import (
	"database/sql"
	"encoding/json"

	"clipsearch/internal/model"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conversation *model.Conversation) error {
	return r.db.QueryRow(`
		INSERT INTO conversation(session_token)
		VALUES($1)
		RETURNING id, created_at
	`, conversation.SessionToken).Scan(&conversation.ID, &conversation.CreatedAt)
}

func (r *ConversationRepository) GetByID(id int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.QueryRow(`
		SELECT id, session_token, created_at
		FROM conversation
		WHERE id = $1
	`, id).Scan(&c.ID, &c.SessionToken, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *ConversationRepository) AppendMessage(message *model.Message) error {
	var citations any
	if len(message.Citations) > 0 {
		data, err := json.Marshal(message.Citations)
		if err != nil {
			return err
		}
		citations = data
	}

	return r.db.QueryRow(`
		INSERT INTO message(conversation_id, role, content, citations)
		VALUES($1, $2, $3, $4)
		RETURNING id, created_at
	`, message.ConversationID, message.Role, message.Content, citations).
		Scan(&message.ID, &message.CreatedAt)
}

// RecentMessages returns the newest n messages in chronological order, the
// bounded history window handed to the generation provider.
func (r *ConversationRepository) RecentMessages(conversationID int64, n int) ([]model.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, conversation_id, role, content, citations, created_at
		FROM (
			SELECT id, conversation_id, role, content, citations, created_at
			FROM message
			WHERE conversation_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`, conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var citations []byte
		err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &citations, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &m.Citations); err != nil {
				return nil, err
			}
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
