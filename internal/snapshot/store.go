// Package snapshot persists reference-graph exports to SQLite.
//
// The in-memory index stays the source of truth; snapshots are
// point-in-time copies for history, offline inspection, and full-text
// search over element titles and bodies.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/index"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config holds snapshot store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the snapshot
// store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".specdex")}
}

// Info is a compact view of one stored snapshot.
type Info struct {
	ID             int64  `json:"id"`
	CreatedAt      string `json:"created_at"`
	ElementCount   int    `json:"element_count"`
	ReferenceCount int    `json:"reference_count"`
}

// SearchHit is one FTS match over the latest snapshot's elements.
type SearchHit struct {
	SnapshotID int64   `json:"snapshot_id"`
	ElementID  string  `json:"element_id"`
	Title      string  `json:"title"`
	Kind       string  `json:"kind"`
	File       string  `json:"file"`
	Rank       float64 `json:"rank"`
}

// Store is the snapshot store backed by SQLite + FTS5.
type Store struct {
	db *sql.DB
}

// New creates the store: data directory, SQLite with WAL mode, schema.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("snapshot: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "snapshots.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("snapshot: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("snapshot: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
			element_count   INTEGER NOT NULL,
			reference_count INTEGER NOT NULL,
			graph_json      TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snap_created ON snapshots(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS elements_fts USING fts5(
			snapshot_id UNINDEXED,
			element_id  UNINDEXED,
			kind        UNINDEXED,
			file        UNINDEXED,
			title,
			body
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a graph export together with the element bodies that
// back it, returning the new snapshot ID.
func (s *Store) Save(export index.GraphExport, elements []*docmodel.DocElement) (int64, error) {
	graphJSON, err := json.Marshal(export)
	if err != nil {
		return 0, fmt.Errorf("snapshot: encode graph: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO snapshots (element_count, reference_count, graph_json) VALUES (?, ?, ?)`,
		len(export.Elements), export.Statistics.TotalReferences, string(graphJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("snapshot: insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot: snapshot id: %w", err)
	}

	for _, e := range elements {
		_, err := tx.Exec(
			`INSERT INTO elements_fts (snapshot_id, element_id, kind, file, title, body)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, e.ID, string(e.Kind), string(e.File), e.Title, e.BodyMarkdown,
		)
		if err != nil {
			return 0, fmt.Errorf("snapshot: insert element %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("snapshot: commit: %w", err)
	}
	return id, nil
}

// List returns stored snapshots, newest first.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, element_count, reference_count
		 FROM snapshots ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.ElementCount, &info.ReferenceCount); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Load retrieves one snapshot's graph export by ID.
func (s *Store) Load(id int64) (*index.GraphExport, error) {
	var graphJSON string
	err := s.db.QueryRow(`SELECT graph_json FROM snapshots WHERE id = ?`, id).Scan(&graphJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot: not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %d: %w", id, err)
	}

	var export index.GraphExport
	if err := json.Unmarshal([]byte(graphJSON), &export); err != nil {
		return nil, fmt.Errorf("snapshot: decode graph %d: %w", id, err)
	}
	return &export, nil
}

// Latest returns the most recent snapshot ID, or false when the store
// is empty.
func (s *Store) Latest() (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("snapshot: latest: %w", err)
	}
	return id, true, nil
}

// Search runs FTS5 full-text search over the latest snapshot's element
// titles and bodies, best rank first.
func (s *Store) Search(query string, limit int) ([]SearchHit, error) {
	latest, ok, err := s.Latest()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT snapshot_id, element_id, kind, file, title, rank
		 FROM elements_fts
		 WHERE elements_fts MATCH ? AND snapshot_id = ?
		 ORDER BY rank LIMIT ?`,
		ftsQuery(query), latest, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: search: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.SnapshotID, &h.ElementID, &h.Kind, &h.File, &h.Title, &h.Rank); err != nil {
			return nil, fmt.Errorf("snapshot: scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Prune deletes all but the newest keep snapshots, including their
// FTS rows.
func (s *Store) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM elements_fts WHERE snapshot_id NOT IN
		 (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep,
	); err != nil {
		return fmt.Errorf("snapshot: prune fts: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM snapshots WHERE id NOT IN
		 (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep,
	); err != nil {
		return fmt.Errorf("snapshot: prune snapshots: %w", err)
	}
	return tx.Commit()
}

// ftsQuery quotes each term so user input with FTS operators cannot
// break the MATCH expression.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, "") + `"`
	}
	return strings.Join(terms, " ")
}
