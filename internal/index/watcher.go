package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbr/toolsite/internal/models"
	"github.com/kbr/toolsite/internal/storage"
)

// Page change kinds passed to EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is one of KindCreated, KindUpdated, KindDeleted; file is relative to
// the content root with forward slashes.
type EventCallback func(kind string, file string)

// Watch starts an fsnotify watcher on the content root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind, file string) {
		if cb != nil {
			cb(kind, file)
		}
	}

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(db, store, root, absPath, logger, notify)
					continue
				}
			}

			if !models.IsContentFile(absPath) {
				continue
			}
			file, ok := relFile(root, absPath)
			if !ok || store.Ignored(file) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(file)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("file", file), slog.String("error", readErr.Error()))
					continue
				}
				existing, _ := db.GetChecksum(file)
				if idxErr := indexFile(db, file, data, time.Now()); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", file), slog.String("error", idxErr.Error()))
					continue
				}
				kind := KindUpdated
				if existing == "" {
					kind = KindCreated
				}
				logger.Debug("watcher: indexed", slog.String("file", file), slog.String("op", kind))
				notify(kind, file)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeletePage(file); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("file", file), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("file", file))
				notify(KindDeleted, file)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new path
				// arrives as a Create when it stays inside a watched dir.
				if delErr := db.DeletePage(file); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("file", file), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("file", file))
					notify(KindDeleted, file)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries without a file on disk and indexes
// on-disk files that are missing or stale.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.FileMeta, len(metas))
	for _, m := range metas {
		disk[m.File] = m
	}

	for f := range checksums {
		if _, ok := disk[f]; !ok {
			if delErr := db.DeletePage(f); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("file", f))
				notify(KindDeleted, f)
			}
		}
	}

	for f, m := range disk {
		prev, indexed := checksums[f]
		if indexed && prev == m.Checksum {
			continue
		}
		data, readErr := store.Read(f)
		if readErr != nil {
			continue
		}
		if idxErr := indexFile(db, f, data, m.UpdatedAt); idxErr == nil {
			kind := KindUpdated
			if !indexed {
				kind = KindCreated
			}
			logger.Debug("reconcile: indexed", slog.String("file", f), slog.String("op", kind))
			notify(kind, f)
		}
	}
}

// indexNewDir indexes any page files found in a newly created directory.
func indexNewDir(db *DB, store storage.Provider, root, dirPath string, logger *slog.Logger, notify EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !models.IsContentFile(path) {
			return nil
		}
		file, ok := relFile(root, path)
		if !ok || store.Ignored(file) {
			return nil
		}
		data, readErr := store.Read(file)
		if readErr != nil {
			return nil
		}
		if idxErr := indexFile(db, file, data, time.Now()); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("file", file))
			notify(KindCreated, file)
		}
		return nil
	})
}

func relFile(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
