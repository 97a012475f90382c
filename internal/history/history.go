package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"podium/agent/internal/types"
)

// Store keeps a bounded list of past presentations in SQLite.
type Store struct {
	db  *sql.DB
	max int
}

func Open(path string, maxRecords int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS presentations (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		slides TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create presentations table: %w", err)
	}
	if maxRecords < 1 {
		maxRecords = 1
	}
	return &Store{db: db, max: maxRecords}, nil
}

// Add inserts a record and prunes the oldest rows beyond the cap.
func (s *Store) Add(topic string, slides []types.Slide) (types.PastPresentation, error) {
	rec := types.PastPresentation{
		ID:        uuid.New().String(),
		Topic:     topic,
		Slides:    slides,
		CreatedAt: time.Now().UTC(),
	}
	blob, err := json.Marshal(slides)
	if err != nil {
		return rec, fmt.Errorf("marshal slides: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO presentations (id, topic, slides, created_at) VALUES (?, ?, ?, ?)",
		rec.ID, rec.Topic, string(blob), rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("insert presentation: %w", err)
	}
	_, err = s.db.Exec(`
		DELETE FROM presentations WHERE id NOT IN (
			SELECT id FROM presentations ORDER BY created_at DESC LIMIT ?
		)`, s.max)
	if err != nil {
		return rec, fmt.Errorf("prune presentations: %w", err)
	}
	return rec, nil
}

// List returns records newest-first.
func (s *Store) List() ([]types.PastPresentation, error) {
	rows, err := s.db.Query("SELECT id, topic, slides, created_at FROM presentations ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()

	var out []types.PastPresentation
	for rows.Next() {
		var rec types.PastPresentation
		var blob string
		if err := rows.Scan(&rec.ID, &rec.Topic, &blob, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &rec.Slides); err != nil {
			return nil, fmt.Errorf("parse slides for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(id string) (*types.PastPresentation, error) {
	var rec types.PastPresentation
	var blob string
	err := s.db.QueryRow("SELECT id, topic, slides, created_at FROM presentations WHERE id = ?", id).
		Scan(&rec.ID, &rec.Topic, &blob, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get presentation: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &rec.Slides); err != nil {
		return nil, fmt.Errorf("parse slides for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }
