package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteChatRepository implements ChatRepository for SQLite/libsql.
type SQLiteChatRepository struct {
	db *sql.DB
}

// NewSQLiteChatRepository creates a new SQLite chat repository.
func NewSQLiteChatRepository(db *sql.DB) *SQLiteChatRepository {
	return &SQLiteChatRepository{db: db}
}

// CreateSession creates a new chat session.
func (r *SQLiteChatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	now := time.Now()
	if session.ID == "" {
		session.ID = ulid.Make().String()
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.Title,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetSession retrieves a chat session by ID.
func (r *SQLiteChatRepository) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = ?
	`, id)

	var session models.ChatSession
	var createdAt, updatedAt string

	err := row.Scan(&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	session.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &session, nil
}

// GetSessionsByUserID returns a user's chat sessions, newest first.
func (r *SQLiteChatRepository) GetSessionsByUserID(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ChatSession
	for rows.Next() {
		var session models.ChatSession
		var createdAt, updatedAt string

		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		session.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// DeleteSession removes a session and, via foreign keys, its messages.
func (r *SQLiteChatRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	return err
}

// CreateMessage appends a message to a session and bumps the session's
// updated_at so session lists sort by recent activity.
func (r *SQLiteChatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	msg.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chat_sessions SET updated_at = ? WHERE id = ?
	`, msg.CreatedAt.Format(time.RFC3339), msg.SessionID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetMessages returns a session's messages in chronological order.
func (r *SQLiteChatRepository) GetMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var createdAt string

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, err
		}

		msg.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
