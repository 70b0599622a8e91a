package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// WorkRow represents a row in the works table.
type WorkRow struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Keywords  []string  `json:"keywords"`
	Published bool      `json:"published"`
	Date      time.Time `json:"date"`
	DateValid bool      `json:"date_valid"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// KeywordCount is a keyword and the number of published works carrying it.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// UpsertWork inserts or replaces a work, its FTS entry, and keywords within a transaction.
func (db *DB) UpsertWork(w WorkRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	keywordsJSON, _ := json.Marshal(w.Keywords)
	var date sql.NullTime
	if w.DateValid {
		date = sql.NullTime{Time: w.Date, Valid: true}
	}
	updated := w.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO works (name, path, title, checksum, keywords, published, date, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			checksum   = excluded.checksum,
			keywords   = excluded.keywords,
			published  = excluded.published,
			date       = excluded.date,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, w.Name, w.Path, w.Title, w.Checksum, string(keywordsJSON), w.Published, date, body, updated)
	if err != nil {
		return fmt.Errorf("index: upsert work: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, w.Name, w.Title, body, w.Keywords); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM work_keywords WHERE name = ?`, w.Name); err != nil {
		return fmt.Errorf("index: clear keywords: %w", err)
	}
	if len(w.Keywords) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO work_keywords (name, keyword) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare keyword insert: %w", err)
		}
		defer stmt.Close()
		for _, kw := range w.Keywords {
			if _, err := stmt.Exec(w.Name, kw); err != nil {
				return fmt.Errorf("index: insert keyword: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteWork removes a work, its FTS entry, and its keywords.
func (db *DB) DeleteWork(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, name)
	_, _ = tx.Exec(`DELETE FROM work_keywords WHERE name = ?`, name)
	_, _ = tx.Exec(`DELETE FROM works WHERE name = ?`, name)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a work, or empty string if not found.
func (db *DB) GetChecksum(name string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM works WHERE name = ?`, name).Scan(&cs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the stored checksum of every indexed work, keyed by name.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM works`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

// ByKeyword returns the published works carrying keyword, newest first.
func (db *DB) ByKeyword(keyword string) ([]WorkRow, error) {
	rows, err := db.conn.Query(`
		SELECT w.name, w.path, w.title, w.checksum, w.keywords, w.published, w.date, w.updated_at
		FROM works w
		JOIN work_keywords k ON k.name = w.name
		WHERE k.keyword = ? AND w.published = 1
		ORDER BY w.date IS NULL, w.date DESC, w.name
	`, keyword)
	if err != nil {
		return nil, fmt.Errorf("index: by keyword: %w", err)
	}
	defer rows.Close()

	var out []WorkRow
	for rows.Next() {
		var (
			r        WorkRow
			keywords string
			date     sql.NullTime
		)
		if err := rows.Scan(&r.Name, &r.Path, &r.Title, &r.Checksum, &keywords, &r.Published, &date, &r.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(keywords), &r.Keywords)
		if date.Valid {
			r.Date, r.DateValid = date.Time, true
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Keywords returns every keyword used by a published work with its count,
// most used first.
func (db *DB) Keywords() ([]KeywordCount, error) {
	rows, err := db.conn.Query(`
		SELECT k.keyword, count(*)
		FROM work_keywords k
		JOIN works w ON w.name = k.name
		WHERE w.published = 1
		GROUP BY k.keyword
		ORDER BY count(*) DESC, k.keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("index: keywords: %w", err)
	}
	defer rows.Close()

	var out []KeywordCount
	for rows.Next() {
		var kc KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, err
		}
		out = append(out, kc)
	}
	return out, rows.Err()
}
