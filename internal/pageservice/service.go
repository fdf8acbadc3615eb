// Package pageservice coordinates content storage, the page index and the
// renderer for the HTTP API and the MCP server.
package pageservice

import (
	"context"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kbr/toolsite/internal/apperr"
	"github.com/kbr/toolsite/internal/index"
	"github.com/kbr/toolsite/internal/models"
	"github.com/kbr/toolsite/internal/parser"
	"github.com/kbr/toolsite/internal/render"
	"github.com/kbr/toolsite/internal/storage"
	"github.com/kbr/toolsite/internal/tags"
)

// PageDetail is the full representation of a page.
type PageDetail struct {
	File        string                       `json:"file"`
	Path        string                       `json:"path"`
	URL         string                       `json:"url"`
	Title       string                       `json:"title"`
	Description string                       `json:"description,omitempty"`
	Tags        []string                     `json:"tags"`
	Date        models.Optional[models.Date] `json:"date"`
	HTML        string                       `json:"html"`
	TOC         []render.Heading             `json:"toc"`
	Checksum    string                       `json:"checksum"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// PageListItem is a lightweight item in a list response.
type PageListItem struct {
	Path        string                       `json:"path"`
	URL         string                       `json:"url"`
	Title       string                       `json:"title"`
	Description string                       `json:"description,omitempty"`
	Tags        []string                     `json:"tags"`
	Date        models.Optional[models.Date] `json:"date"`
}

// TreeNode is one navigation entry.
type TreeNode struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RouteParams are the slug segments of one page route.
type RouteParams struct {
	Slug []string `json:"slug"`
}

// TagPage is the listing for a single tag.
type TagPage struct {
	Tag         string         `json:"tag"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Count       int            `json:"count"`
	Summary     string         `json:"summary"`
	Pages       []PageListItem `json:"pages"`
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	db       index.PageIndex
	renderer *render.Renderer
}

// NewService creates a new page service.
func NewService(store storage.Provider, db index.PageIndex) *Service {
	return &Service{store: store, db: db, renderer: render.New()}
}

// GetPage resolves id, reads the file and renders its body.
func (s *Service) GetPage(_ context.Context, id string) (*PageDetail, error) {
	p, err := s.db.GetPage(id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(p.File)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render([]byte(res.Body))
	if err != nil {
		return nil, err
	}
	return &PageDetail{
		File:        p.File,
		Path:        p.Path,
		URL:         p.URL(),
		Title:       p.DisplayName(),
		Description: p.Description,
		Tags:        tags.PageTags(p),
		Date:        p.Date,
		HTML:        out.HTML,
		TOC:         out.TOC,
		Checksum:    p.Checksum,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

// ListPages returns every page ordered by path.
func (s *Service) ListPages(_ context.Context) ([]PageListItem, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	return listItems(pages), nil
}

// Tree returns the navigation tree.
func (s *Service) Tree(_ context.Context) ([]TreeNode, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	out := make([]TreeNode, len(pages))
	for i, p := range pages {
		out[i] = TreeNode{Name: p.DisplayName(), URL: p.URL()}
	}
	return out, nil
}

// Params returns the route parameters of every page for static generation.
func (s *Service) Params(_ context.Context) ([]RouteParams, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	out := make([]RouteParams, len(pages))
	for i, p := range pages {
		out[i] = RouteParams{Slug: models.Slugs(p.Path)}
	}
	return out, nil
}

// Tags returns the tag vocabulary with page counts, sorted by tag.
func (s *Service) Tags(_ context.Context) ([]tags.TagCount, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	return tags.Build(pages).Entries(), nil
}

// TagPage returns the pages carrying tag. apperr.ErrNotFound is returned
// when no page carries it.
func (s *Service) TagPage(_ context.Context, tag string) (*TagPage, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	tag = tags.Normalize(tag)
	matched := tags.PagesFor(pages, tag)
	if len(matched) == 0 {
		return nil, fmt.Errorf("pageservice: tag %q: %w", tag, apperr.ErrNotFound)
	}
	return &TagPage{
		Tag:         tag,
		Title:       capitalize(tag) + " Tools",
		Description: `Browse all tools tagged with "` + tag + `"`,
		Count:       len(matched),
		Summary:     toolCount(len(matched)),
		Pages:       listItems(matched),
	}, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchHit, error) {
	return s.db.Search(query, limit)
}

// Ready reports whether the index is usable.
func (s *Service) Ready(_ context.Context) error {
	return s.db.Ping()
}

func listItems(pages []models.Page) []PageListItem {
	out := make([]PageListItem, len(pages))
	for i, p := range pages {
		out[i] = PageListItem{
			Path:        p.Path,
			URL:         p.URL(),
			Title:       p.DisplayName(),
			Description: p.Description,
			Tags:        tags.PageTags(p),
			Date:        p.Date,
		}
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func toolCount(n int) string {
	if n == 1 {
		return "1 tool"
	}
	return fmt.Sprintf("%d tools", n)
}
