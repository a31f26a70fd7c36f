// ABOUTME: SQLite-backed conversation repository for voyager-gateway
// ABOUTME: Durable tier behind the session store; WAL mode, schema bootstrapped in code

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/voyager-gateway/internal/session"
)

// SQLiteRepository implements session.Repository using SQLite
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository creates a repository at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		logger: logger,
	}

	if err := r.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite repository initialized", "path", path)
	return r, nil
}

// createSchema creates the database tables if they don't exist
func (r *SQLiteRepository) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id             TEXT PRIMARY KEY,
			context_json   TEXT NOT NULL,
			created_at     TEXT NOT NULL,
			last_active_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_last_active
			ON conversations(last_active_at);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			content         TEXT NOT NULL,
			role            TEXT NOT NULL,
			timestamp       TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant')),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Load retrieves a conversation session by id.
// Returns session.ErrNotFound if the conversation does not exist.
func (r *SQLiteRepository) Load(ctx context.Context, id string) (*session.Session, error) {
	var contextJSON, createdAt, lastActiveAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT context_json, created_at, last_active_at FROM conversations WHERE id = ?`,
		id,
	).Scan(&contextJSON, &createdAt, &lastActiveAt)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	sess := &session.Session{ID: id, Context: session.NewContext()}
	if err := json.Unmarshal([]byte(contextJSON), &sess.Context); err != nil {
		return nil, fmt.Errorf("decoding context: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.LastActiveAt, err = time.Parse(time.RFC3339Nano, lastActiveAt); err != nil {
		return nil, fmt.Errorf("parsing last_active_at: %w", err)
	}

	// Messages in insertion order (rowid, not timestamp, to keep ties stable)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content, role, timestamp FROM messages WHERE conversation_id = ? ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg session.Message
		var ts string
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.Role, &ts); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if msg.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing message timestamp: %w", err)
		}
		sess.Messages = append(sess.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return sess, nil
}

// Save upserts the conversation row and appends any messages not yet stored.
// Messages are append-only, so existing rows are never rewritten.
func (r *SQLiteRepository) Save(ctx context.Context, sess *session.Session) error {
	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return fmt.Errorf("encoding context: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, context_json, created_at, last_active_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			context_json = excluded.context_json,
			last_active_at = excluded.last_active_at`,
		sess.ID,
		string(contextJSON),
		sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		sess.LastActiveAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}

	for _, msg := range sess.Messages {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO messages (id, conversation_id, content, role, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			msg.ID,
			sess.ID,
			msg.Content,
			msg.Role,
			msg.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Delete removes a conversation and its messages.
// Deleting an unknown id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// Close releases the underlying database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
