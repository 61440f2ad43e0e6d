package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/clinicore/assistant/core/protocol"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id             TEXT PRIMARY KEY,
	owner_scope_id TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	archived       INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_scope ON conversations(owner_scope_id, created_at);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
`

// SQLStore is a Store backed by a local SQLite database. The schema is
// created on open, so a fresh path is a valid empty store.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLStore opens (or creates) the SQLite database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CreateConversation(ctx context.Context, scopeID, title string) (Conversation, error) {
	if scopeID == "" {
		return Conversation{}, ErrEmptyScope
	}

	conv := Conversation{
		ID:           uuid.Must(uuid.NewV7()).String(),
		OwnerScopeID: scopeID,
		Title:        title,
		CreatedAt:    s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_scope_id, title, archived, created_at) VALUES (?, ?, ?, 0, ?)`,
		conv.ID, conv.OwnerScopeID, conv.Title, conv.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_scope_id, title, archived, created_at FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

func (s *SQLStore) ListConversations(ctx context.Context, scopeID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_scope_id, title, archived, created_at
		 FROM conversations WHERE owner_scope_id = ? ORDER BY created_at DESC`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (s *SQLStore) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var msg Message
		var role, created string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = protocol.Role(role)
		msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *SQLStore) SaveMessage(ctx context.Context, conversationID string, role protocol.Role, content string) (Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

func (s *SQLStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) ArchiveConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive conversation: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("update conversation title: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var conv Conversation
	var archived int
	var created string

	err := row.Scan(&conv.ID, &conv.OwnerScopeID, &conv.Title, &archived, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}

	conv.Archived = archived != 0
	conv.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return conv, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
