//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS works_fts USING fts5(
			name UNINDEXED,
			title,
			body,
			keywords,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, name, title, body string, keywords []string) error {
	_, _ = tx.Exec(`DELETE FROM works_fts WHERE name = ?`, name)
	_, err := tx.Exec(`INSERT INTO works_fts (name, title, body, keywords) VALUES (?, ?, ?, ?)`,
		name, title, body, strings.Join(keywords, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, name string) {
	_, _ = tx.Exec(`DELETE FROM works_fts WHERE name = ?`, name)
}

// Search performs an FTS5 full-text search over published works and returns
// matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.name,
		       f.title,
		       snippet(works_fts, 2, '<b>', '</b>', '...', 64)
		FROM works_fts f
		JOIN works w ON w.name = f.name
		WHERE works_fts MATCH ? AND w.published = 1
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Name, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
