package index

import (
	"log/slog"
	"time"

	"github.com/kbr/toolsite/internal/checksum"
	"github.com/kbr/toolsite/internal/parser"
	"github.com/kbr/toolsite/internal/render"
	"github.com/kbr/toolsite/internal/storage"
)

var textRenderer = render.New()

// Sync walks the content directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.File] = struct{}{}

		if checksums[m.File] == m.Checksum {
			continue
		}

		data, err := store.Read(m.File)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", m.File), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.File, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.File), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("file", m.File))
		}
	}

	// Remove stale entries.
	for f := range checksums {
		if _, ok := disk[f]; !ok {
			if err := db.DeletePage(f); err != nil {
				logger.Warn("sync: delete failed", slog.String("file", f), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("file", f))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, file string, data []byte, updatedAt time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	page := res.Page(file)
	page.Checksum = checksum.Sum(data)
	page.UpdatedAt = updatedAt.UTC()
	return db.UpsertPage(page, textRenderer.PlainText([]byte(res.Body)))
}
