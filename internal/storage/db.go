// Package storage keeps per-session state in an in-memory SQLite database.
// Nothing outlives the process.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fedramphub/internal"
)

type DB struct {
	conn         *sql.DB
	historyLimit int
}

// Open creates a fresh session database. historyLimit caps the number of
// distinct queries kept; zero or less keeps 10.
func Open(historyLimit int) (*DB, error) {
	if historyLimit <= 0 {
		historyLimit = 10
	}

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, historyLimit: historyLimit}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  query TEXT NOT NULL,
  resultCount INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS saved_searches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  query TEXT NOT NULL UNIQUE,
  optionsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  kind TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// AddHistory records a query. A repeated query moves to the front instead of
// appearing twice, and only the newest historyLimit queries are kept.
func (d *DB) AddHistory(query string, resultCount int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM history WHERE query = ?`, query); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO history (query, resultCount) VALUES (?, ?)`, query, resultCount); err != nil {
		return err
	}
	if _, err := tx.Exec(`
DELETE FROM history WHERE id NOT IN (
  SELECT id FROM history ORDER BY id DESC LIMIT ?
)`, d.historyLimit); err != nil {
		return err
	}
	return tx.Commit()
}

// History returns recorded queries, newest first.
func (d *DB) History() ([]internal.HistoryEntry, error) {
	rows, err := d.conn.Query(`SELECT id, query, resultCount, createdAt FROM history ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.HistoryEntry{}
	for rows.Next() {
		var h internal.HistoryEntry
		if err := rows.Scan(&h.ID, &h.Query, &h.ResultCount, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *DB) ClearHistory() error {
	_, err := d.conn.Exec(`DELETE FROM history`)
	return err
}

// SaveSearch stores a query with its options. It reports false when the
// query was already saved.
func (d *DB) SaveSearch(query string, options any) (bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return false, errors.New("cannot save an empty query")
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return false, err
	}
	res, err := d.conn.Exec(`INSERT INTO saved_searches (query, optionsJson) VALUES (?, ?) ON CONFLICT(query) DO NOTHING`, query, string(optionsJSON))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) SavedSearches() ([]internal.SavedSearch, error) {
	rows, err := d.conn.Query(`SELECT query, optionsJson, createdAt FROM saved_searches ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.SavedSearch{}
	for rows.Next() {
		var s internal.SavedSearch
		if err := rows.Scan(&s.Query, &s.Options, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSaved returns nil when the query is not saved.
func (d *DB) GetSaved(query string) (*internal.SavedSearch, error) {
	var s internal.SavedSearch
	err := d.conn.QueryRow(`SELECT query, optionsJson, createdAt FROM saved_searches WHERE query = ?`, strings.TrimSpace(query)).
		Scan(&s.Query, &s.Options, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) DeleteSaved(query string) (bool, error) {
	res, err := d.conn.Exec(`DELETE FROM saved_searches WHERE query = ?`, strings.TrimSpace(query))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertRun logs one operation and returns its generated run id.
func (d *DB) InsertRun(kind string, timings map[string]float64, counts map[string]int) (string, error) {
	runID := uuid.NewString()
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (runId, kind, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, runID, kind, string(timingsJSON), string(countsJSON))
	if err != nil {
		return "", err
	}
	return runID, nil
}

// Runs returns logged runs, oldest first.
func (d *DB) Runs() ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`SELECT runId, kind, timingsJson, countsJson, createdAt FROM runs ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var r internal.RunRecord
		var timingsJSON, countsJSON string
		if err := rows.Scan(&r.RunID, &r.Kind, &timingsJSON, &countsJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &r.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &r.Counts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
