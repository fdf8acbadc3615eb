//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/kbr/toolsite/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE on the pages table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ models.Page, _ string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// likeEscaper makes the query match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchHit, error) {
	out := []SearchHit{}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT path, title, description, substr(body, 1, 200)
		FROM pages
		WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
			OR body LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
		ORDER BY title LIKE ? ESCAPE '\' DESC, path
		LIMIT ?
	`, like, like, like, like, like, limit)
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
