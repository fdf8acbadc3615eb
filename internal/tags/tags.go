// Package tags derives the tag vocabulary of the site from page frontmatter.
//
// Every function here is pure: the page collection is passed in explicitly
// and the index is rebuilt on each call.
package tags

import (
	"slices"
	"sort"
	"strings"

	"github.com/kbr/toolsite/internal/models"
)

// Parse splits a comma-separated tags string into normalized tags. Order of
// appearance is kept and duplicates are preserved. Empty segments are dropped.
func Parse(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	for _, seg := range strings.Split(raw, ",") {
		if tag := Normalize(seg); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Normalize trims and lower-cases a single tag.
func Normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// PageTags returns the parsed tags of p.
func PageTags(p models.Page) []string {
	return Parse(p.Tags.OrZero())
}

// Index maps tags to the pages carrying them.
type Index struct {
	Counts     map[string]int
	PagesByTag map[string][]models.Page
}

// TagCount is one row of the tag vocabulary.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Build aggregates the tags of pages. Tags repeated on one page count once.
func Build(pages []models.Page) Index {
	ix := Index{
		Counts:     make(map[string]int),
		PagesByTag: make(map[string][]models.Page),
	}
	for _, p := range pages {
		for _, tag := range distinct(PageTags(p)) {
			ix.Counts[tag]++
			ix.PagesByTag[tag] = append(ix.PagesByTag[tag], p)
		}
	}
	return ix
}

// List returns the tag vocabulary sorted ascending.
func (ix Index) List() []string {
	out := make([]string, 0, len(ix.Counts))
	for tag := range ix.Counts {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Entries returns the vocabulary with counts, sorted by tag.
func (ix Index) Entries() []TagCount {
	list := ix.List()
	out := make([]TagCount, len(list))
	for i, tag := range list {
		out[i] = TagCount{Tag: tag, Count: ix.Counts[tag]}
	}
	return out
}

// List returns the sorted tag vocabulary of pages.
func List(pages []models.Page) []string {
	return Build(pages).List()
}

// Counts returns how many pages carry each tag.
func Counts(pages []models.Page) map[string]int {
	return Build(pages).Counts
}

// PagesFor returns the pages tagged with tag, compared case-insensitively.
// The result is empty, never nil, when nothing matches.
func PagesFor(pages []models.Page, tag string) []models.Page {
	want := Normalize(tag)
	out := []models.Page{}
	if want == "" {
		return out
	}
	for _, p := range pages {
		if slices.Contains(PageTags(p), want) {
			out = append(out, p)
		}
	}
	return out
}

func distinct(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
