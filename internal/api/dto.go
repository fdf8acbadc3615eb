package api

import (
	"github.com/kbr/toolsite/internal/index"
	"github.com/kbr/toolsite/internal/pageservice"
	"github.com/kbr/toolsite/internal/tags"
)

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = pageservice.PageDetail

// PageListItem is a lightweight item in a list response (aliased from the domain layer).
type PageListItem = pageservice.PageListItem

// PageListResponse wraps page listings.
type PageListResponse struct {
	Pages []PageListItem `json:"pages" validate:"required"`
	Total int            `json:"total" example:"12" validate:"required"`
}

// TagListResponse wraps the tag vocabulary with counts.
type TagListResponse struct {
	Tags []tags.TagCount `json:"tags" validate:"required"`
}

// TagPageResponse is the listing for one tag.
type TagPageResponse = pageservice.TagPage

// SearchHit is one search result. The enrichment middleware adds a
// "tags" array to every hit.
type SearchHit = index.SearchHit
