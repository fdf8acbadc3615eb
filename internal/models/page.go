// Package models defines the domain types for toolsite.
package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/kbr/toolsite/internal/apperr"
)

// Content file extensions recognised as pages.
const (
	ExtMDX = ".mdx"
	ExtMD  = ".md"
)

// Page is one content page (a tool or doc page) loaded from the content directory.
type Page struct {
	File        string           `json:"file"`
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Tags        Optional[string] `json:"raw_tags"`
	Date        Optional[Date]   `json:"date"`
	Checksum    string           `json:"checksum"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// URL returns the public route of the page. Index pages map to their
// directory.
func (p Page) URL() string {
	path := strings.TrimSuffix(p.Path, "/index")
	if path == "" || path == "index" {
		return "/docs"
	}
	return "/docs/" + path
}

// DisplayName is the name shown in navigation.
func (p Page) DisplayName() string {
	switch {
	case p.Title != "":
		return p.Title
	case p.Path != "":
		return p.Path
	default:
		return "Untitled"
	}
}

// FileMeta is a lightweight representation returned by storage list operations.
type FileMeta struct {
	File      string    `json:"file"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pages is an in-memory page collection.
type Pages []Page

// GetPage resolves id against the collection. A slug "foo" matches a page
// stored at "foo" or at "foo/index".
func (ps Pages) GetPage(id string) (Page, error) {
	slug := SlugID(id)
	for _, p := range ps {
		if p.Path == slug || p.Path == slug+"/index" {
			return p, nil
		}
	}
	return Page{}, apperr.ErrNotFound
}

// SlugID normalises a page identifier the way routes do: empty segments are
// dropped and an empty identifier means "index".
func SlugID(id string) string {
	parts := strings.Split(id, "/")
	segs := parts[:0]
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return "index"
	}
	return strings.Join(segs, "/")
}

// Slugs splits a page path into route segments.
func Slugs(path string) []string {
	out := []string{}
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PathFromFile derives the page identifier from a content-relative file name.
func PathFromFile(file string) string {
	p := filepath.ToSlash(file)
	if strings.HasSuffix(p, ExtMDX) {
		return strings.TrimSuffix(p, ExtMDX)
	}
	return strings.TrimSuffix(p, ExtMD)
}

// IsContentFile reports whether name has a page extension.
func IsContentFile(name string) bool {
	return strings.HasSuffix(name, ExtMDX) || strings.HasSuffix(name, ExtMD)
}
