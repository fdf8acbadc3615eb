package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kbr/toolsite/internal/checksum"
	"github.com/kbr/toolsite/internal/pageservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc         *pageservice.Service
	searchLimit int
}

// NewHandler creates a new Handler.
func NewHandler(svc *pageservice.Service, searchLimit int) *Handler {
	return &Handler{svc: svc, searchLimit: searchLimit}
}

// pageID extracts the page id from the URL (everything after /api/pages/).
// Supports encoded slashes (e.g. tools%2Fplanner).
func pageID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /api/pages.
//
//	@Summary		List all pages
//	@Tags			pages
//	@Produce		json
//	@Success		200		{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListPages(r.Context())
	if err != nil {
		writeError(w, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: items, Total: len(items)})
}

// GetPage handles GET /api/pages/*. An empty id resolves the root index page.
//
//	@Summary		Get a single page by route id
//	@Tags			pages
//	@Produce		json
//	@Param			id	path		string	true	"Page id (slug path)"
//	@Success		200		{object}	PageDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{id} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id := pageID(r)
	page, err := h.svc.GetPage(r.Context(), id)
	if err != nil {
		writeError(w, "get page", err, slog.String("id", id))
		return
	}
	etag := checksum.ETag(page.Checksum)
	if etag != "" {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	writeJSON(w, http.StatusOK, page)
}

// Tree handles GET /api/tree.
//
//	@Summary		Navigation tree
//	@Tags			pages
//	@Produce		json
//	@Success		200	{array}	pageservice.TreeNode
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context())
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Params handles GET /api/params.
//
//	@Summary		Route parameters of every page
//	@Tags			pages
//	@Produce		json
//	@Success		200	{array}	pageservice.RouteParams
//	@Security		BearerAuth
//	@Router			/params [get]
func (h *Handler) Params(w http.ResponseWriter, r *http.Request) {
	params, err := h.svc.Params(r.Context())
	if err != nil {
		writeError(w, "params", err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// ListTags handles GET /api/tags.
//
//	@Summary		Tag vocabulary with page counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: list})
}

// TagPage handles GET /api/tags/{tag}.
//
//	@Summary		Pages carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	path		string	true	"Tag"
//	@Success		200	{object}	TagPageResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{tag} [get]
func (h *Handler) TagPage(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if decoded, err := url.PathUnescape(tag); err == nil {
		tag = decoded
	}
	tp, err := h.svc.TagPage(r.Context(), tag)
	if err != nil {
		writeError(w, "tag page", err, slog.String("tag", tag))
		return
	}
	writeJSON(w, http.StatusOK, tp)
}

// Search handles GET /api/search against the local index. The response is a
// bare array of hits; an empty query yields an empty array.
//
//	@Summary		Full-text search across pages
//	@Tags			search
//	@Produce		json
//	@Param			query	query		string	false	"Search query (alias: q)"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{array}		SearchHit
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := searchQuery(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = h.searchLimit
	}
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func searchQuery(r *http.Request) string {
	q := r.URL.Query()
	if v := q.Get("query"); v != "" {
		return v
	}
	return q.Get("q")
}
