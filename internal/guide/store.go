// Package guide stores structured course-guide documents and scrapes
// them from teaching-guide web pages.
package guide

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Document is one course guide, a nested JSON object keyed by section
// name. Nested values are addressed with dotted paths, e.g.
// "bibliography.core".
type Document map[string]any

// ErrNotFound indicates no guide is stored for the subject.
var ErrNotFound = errors.New("guide not found")

// Store persists guide documents in SQLite, one row per subject.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) a guide database at path.
// Use ":memory:" for tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS guides (
			subject    TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores or replaces the guide for a subject. Subjects are
// matched case-insensitively, so the key is stored lowercased.
func (s *Store) Save(subject string, doc Document) error {
	subject = normalizeSubject(subject)
	if subject == "" {
		return errors.New("guide: empty subject")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("guide: encode document: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO guides (subject, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(subject) DO UPDATE SET
			document   = excluded.document,
			updated_at = excluded.updated_at
	`, subject, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("guide: save document: %w", err)
	}
	return nil
}

// Lookup retrieves the guide for a subject. Returns ErrNotFound when
// none is stored.
func (s *Store) Lookup(subject string) (Document, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT document FROM guides WHERE subject = ?
	`, normalizeSubject(subject)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("guide: load document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("guide: decode document: %w", err)
	}
	return doc, nil
}

// Subjects lists the stored subject keys in sorted order.
func (s *Store) Subjects() ([]string, error) {
	rows, err := s.db.Query(`SELECT subject FROM guides ORDER BY subject`)
	if err != nil {
		return nil, fmt.Errorf("guide: list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, fmt.Errorf("guide: scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

// Delete removes the guide for a subject. Removing an unknown subject
// is not an error.
func (s *Store) Delete(subject string) error {
	if _, err := s.db.Exec(`DELETE FROM guides WHERE subject = ?`, normalizeSubject(subject)); err != nil {
		return fmt.Errorf("guide: delete document: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Field resolves a dotted path inside a document. The second return
// is false when any segment is missing or the path descends into a
// non-object.
func Field(doc Document, path string) (any, bool) {
	var value any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		obj, ok := asObject(value)
		if !ok {
			return nil, false
		}
		value, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// asObject unwraps both raw maps and nested Documents, which differ
// only before a JSON round-trip.
func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Document:
		return v, true
	default:
		return nil, false
	}
}

// Summary extracts the short overview of a document: identity fields
// plus the first few description entries.
func Summary(doc Document) Document {
	summary := Document{
		"subject": doc["subject"],
		"degree":  doc["degree"],
		"course":  doc["course"],
		"url":     doc["url"],
	}
	if desc, ok := doc["brief_description"].([]any); ok {
		if len(desc) > 3 {
			desc = desc[:3]
		}
		summary["brief_description"] = desc
	} else {
		summary["brief_description"] = []any{}
	}
	return summary
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
