package tags

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/kbr/toolsite/internal/models"
)

// PageSource lists the current page collection.
type PageSource interface {
	ListPages() ([]models.Page, error)
}

// EnrichSearch wraps a search handler and adds page tags to its hits.
// Non-200 responses and bodies that are not a JSON array pass through
// verbatim. The page collection is snapshotted once per request.
func EnrichSearch(src PageSource, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &bufferedResponse{header: make(http.Header)}
			next.ServeHTTP(rec, r)

			status := rec.statusCode()
			if status != http.StatusOK {
				rec.copyTo(w, rec.body.Bytes())
				return
			}

			pages, err := src.ListPages()
			if err != nil {
				logger.Warn("search enrich: list pages failed", slog.String("error", err.Error()))
				pages = nil
			}

			out := EnrichResponse(status, rec.body.Bytes(), models.Pages(pages))
			rec.header.Del("Content-Length")
			rec.copyTo(w, out)
		})
	}
}

type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *bufferedResponse) copyTo(w http.ResponseWriter, body []byte) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	w.WriteHeader(b.statusCode())
	_, _ = w.Write(body)
}
