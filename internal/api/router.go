package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kbr/toolsite/internal/pageservice"
	"github.com/kbr/toolsite/internal/tags"
)

// Options configures the API router.
type Options struct {
	AuthEnabled bool
	Token       string
	// SSE, if non-nil, is mounted at GET /events inside the auth group.
	SSE http.Handler
	// EmbedsRoot is the directory served under /embeds.
	EmbedsRoot string
	// Upstream, if non-nil, replaces local search.
	Upstream    http.Handler
	SearchLimit int
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted. pages is the
// collection search hits are enriched against.
func NewRouter(svc *pageservice.Service, pages tags.PageSource, opts Options) chi.Router {
	h := NewHandler(svc, opts.SearchLimit)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Embedded tool files are public assets.
	if opts.EmbedsRoot != "" {
		eh := NewEmbedHandler(opts.EmbedsRoot)
		r.Get("/embeds/{filename}", eh.ServeFile)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

		r.Get("/pages", h.ListPages)
		r.Get("/pages/*", h.GetPage)
		r.Get("/tree", h.Tree)
		r.Get("/params", h.Params)

		r.Get("/tags", h.ListTags)
		r.Get("/tags/{tag}", h.TagPage)

		var search http.Handler = http.HandlerFunc(h.Search)
		if opts.Upstream != nil {
			search = opts.Upstream
		}
		r.With(tags.EnrichSearch(pages, logger)).Get("/search", search.ServeHTTP)

		if opts.SSE != nil {
			r.Get("/events", opts.SSE.ServeHTTP)
		}
	})

	return r
}
