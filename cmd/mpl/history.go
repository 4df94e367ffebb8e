package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// historyStore persists shell input across sessions.
type historyStore struct {
	db *sql.DB
	mu sync.Mutex
}

func openHistory(path string) (*historyStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &historyStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (h *historyStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		input TEXT NOT NULL,
		failed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_session ON history(session);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Append records one line of shell input.
func (h *historyStore) Append(ctx context.Context, session, input string, failed bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO history (session, input, failed, created_at) VALUES (?, ?, ?, ?)`,
		session, input, failed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Recent returns up to limit inputs, oldest first.
func (h *historyStore) Recent(ctx context.Context, limit int) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.QueryContext(ctx,
		`SELECT input FROM (SELECT id, input FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var inputs []string
	for rows.Next() {
		var input string
		if err := rows.Scan(&input); err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, rows.Err()
}

func (h *historyStore) Close() error {
	return h.db.Close()
}
