package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps the feedback document as one row of a key-value table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS documents (
        name TEXT PRIMARY KEY,
        body TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = ?", feedbackDocumentName).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return Document{NextID: 1, Feedback: []Feedback{}}, nil
		}
		return Document{}, fmt.Errorf("failed to query document: %w", err)
	}
	return decodeDocument([]byte(body))
}

func (s *SQLiteStore) Replace(ctx context.Context, doc Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
    `, feedbackDocumentName, string(body), time.Now())
	if err != nil {
		return fmt.Errorf("failed to execute document upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}
