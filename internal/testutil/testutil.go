// Package testutil provides shared test helpers for content directories and databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/kbr/toolsite/internal/index"
	"github.com/kbr/toolsite/internal/storage"
)

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "toolsite-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary content directory holding files
// (relative name → content) and returns its root and provider.
func TestContent(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := store.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store
}

// Indexed seeds a content directory with files and syncs it into a fresh DB.
func Indexed(t *testing.T, files map[string]string) (*storage.FS, *index.DB) {
	t.Helper()
	_, store := TestContent(t, files)
	db := TestDB(t)
	if err := index.Sync(db, store, Logger()); err != nil {
		t.Fatal(err)
	}
	return store, db
}

// SampleSite is a small content tree shared by API and MCP tests.
var SampleSite = map[string]string{
	"index.mdx": "---\ntitle: Tools\ndescription: A collection of web-based utility tools\n---\n## Available Tools\n",
	"tools/planner.mdx": "---\ntitle: Planner\ndescription: Visual time blocking\ntags: Productivity, planning\ndate: 2024-03-01\n---\n" +
		"# Usage\n\nDrag blocks. See [more planning](#planning).\n",
	"tools/clipper.mdx": "---\ntitle: Clipper\ndescription: Trim video clips\ntags: video, ffmpeg\ndate: 2024-05-10\n---\nCut videos in the browser.\n",
	"guides/index.md":   "---\ntitle: Guides\n---\nHow to use the tools.\n",
}
