package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kbr/toolsite/internal/apperr"
	"github.com/kbr/toolsite/internal/models"
)

// SearchHit is one search result, shaped like the site's search endpoint
// output so it can be enriched with tags.
type SearchHit struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

const defaultSearchLimit = 20

const pageColumns = `file, path, title, description, tags, has_tags, date, has_date, checksum, updated_at`

// UpsertPage inserts or replaces a page and its FTS entry within a transaction.
// body is the plain text used for search.
func (db *DB) UpsertPage(p models.Page, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	rawTags, hasTags := p.Tags.Get()
	date, hasDate := p.Date.Get()

	_, err = tx.Exec(`
		INSERT INTO pages (file, path, title, description, tags, has_tags, date, has_date, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			path        = excluded.path,
			title       = excluded.title,
			description = excluded.description,
			tags        = excluded.tags,
			has_tags    = excluded.has_tags,
			date        = excluded.date,
			has_date    = excluded.has_date,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, p.File, p.Path, p.Title, p.Description, rawTags, hasTags, date.Raw, hasDate, p.Checksum, body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePage removes a page and its FTS entry.
func (db *DB) DeletePage(file string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, file); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE file = ?`, file); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(file string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE file = ?`, file).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns file → checksum for every indexed page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT file, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var file, cs string
		if err := rows.Scan(&file, &cs); err != nil {
			return nil, err
		}
		out[file] = cs
	}
	return out, rows.Err()
}

// ListPages returns every indexed page ordered by path.
func (db *DB) ListPages() ([]models.Page, error) {
	rows, err := db.conn.Query(`SELECT ` + pageColumns + ` FROM pages ORDER BY path, file`)
	if err != nil {
		return nil, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	out := []models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPage resolves a route id. A slug "foo" matches a page stored at path
// "foo" or "foo/index"; an exact match wins.
func (db *DB) GetPage(id string) (models.Page, error) {
	slug := models.SlugID(id)
	row := db.conn.QueryRow(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE path = ? OR path = ?
		ORDER BY path = ? DESC, file
		LIMIT 1
	`, slug, slug+"/index", slug)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Page{}, fmt.Errorf("index: page %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Page{}, fmt.Errorf("index: get page: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner) (models.Page, error) {
	var (
		p                models.Page
		rawTags, rawDate string
		hasTags, hasDate bool
		updatedAt        time.Time
	)
	if err := s.Scan(&p.File, &p.Path, &p.Title, &p.Description, &rawTags, &hasTags, &rawDate, &hasDate, &p.Checksum, &updatedAt); err != nil {
		return models.Page{}, err
	}
	if hasTags {
		p.Tags = models.Some(rawTags)
	}
	if hasDate {
		p.Date = models.Some(models.ParseDate(rawDate))
	}
	p.UpdatedAt = updatedAt
	return p, nil
}

func searchHit(path, title, description, content string) SearchHit {
	return SearchHit{
		ID:          path,
		URL:         models.Page{Path: path}.URL(),
		Type:        "page",
		Title:       title,
		Description: description,
		Content:     content,
	}
}
