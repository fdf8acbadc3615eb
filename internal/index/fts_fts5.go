//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/kbr/toolsite/internal/models"
	"github.com/kbr/toolsite/internal/tags"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
			file UNINDEXED,
			title,
			description,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, p models.Page, body string) error {
	if err := ftsDelete(tx, p.File); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO pages_fts (file, title, description, body, tags) VALUES (?, ?, ?, ?, ?)`,
		p.File, p.Title, p.Description, body, strings.Join(tags.PageTags(p), " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, file string) error {
	if _, err := tx.Exec(`DELETE FROM pages_fts WHERE file = ?`, file); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchQuery turns free text into an FTS5 prefix query, quoting every term
// so user input cannot inject query syntax.
func matchQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching hits with snippets.
func (db *DB) Search(query string, limit int) ([]SearchHit, error) {
	out := []SearchHit{}
	match := matchQuery(query)
	if match == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := db.conn.Query(`
		SELECT p.path,
		       p.title,
		       p.description,
		       snippet(pages_fts, 3, '', '', '...', 32)
		FROM pages_fts
		JOIN pages p ON p.file = pages_fts.file
		WHERE pages_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path, title, description, content string
		if err := rows.Scan(&path, &title, &description, &content); err != nil {
			return nil, err
		}
		out = append(out, searchHit(path, title, description, content))
	}
	return out, rows.Err()
}
