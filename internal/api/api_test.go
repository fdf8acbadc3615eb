package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbr/toolsite/internal/pageservice"
	"github.com/kbr/toolsite/internal/sse"
	"github.com/kbr/toolsite/internal/testutil"
)

// testEnv sets up a temp content dir, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode; a non-empty one enables token mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWith(t, Options{AuthEnabled: authToken != "", Token: authToken})
}

func testEnvWith(t *testing.T, opts Options) http.Handler {
	t.Helper()
	store, db := testutil.Indexed(t, testutil.SampleSite)
	svc := pageservice.NewService(store, db)
	opts.Logger = testutil.Logger()
	return NewRouter(svc, db, opts)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	return testEnvWith(t, Options{AuthEnabled: authEnabled, Token: token, SSE: broker})
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListPages(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/pages")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PageListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 4 || len(resp.Pages) != 4 {
		t.Fatalf("pages = %+v", resp)
	}
	if resp.Pages[2].Path != "tools/clipper" || resp.Pages[2].Tags[0] != "video" {
		t.Errorf("pages[2] = %+v", resp.Pages[2])
	}
	if d, ok := resp.Pages[2].Date.Get(); !ok || d.String() != "2024-05-10" {
		t.Errorf("pages[2].date = %v (set=%v)", d, ok)
	}
	if resp.Pages[1].Date.IsSet() {
		t.Errorf("index page date should be absent: %+v", resp.Pages[1])
	}
}

func TestGetPage(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/pages/tools/planner")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var page struct {
		Path string   `json:"path"`
		Tags []string `json:"tags"`
		HTML string   `json:"html"`
		Date string   `json:"date"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Path != "tools/planner" || page.Date != "2024-03-01" {
		t.Errorf("page = %+v", page)
	}
	if len(page.Tags) != 2 || page.Tags[0] != "productivity" {
		t.Errorf("tags = %v", page.Tags)
	}
	if !strings.Contains(page.HTML, `href="/tags/planning"`) {
		t.Errorf("hash link not rewritten: %s", page.HTML)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	w = get(t, router, "/pages/tools/planner", "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d, want 304", w.Code)
	}
}

func TestGetPage_IndexResolution(t *testing.T) {
	router := testEnv(t, "")

	for target, title := range map[string]string{
		"/pages/":                "Tools",
		"/pages/guides":          "Guides",
		"/pages/tools%2Fclipper": "Clipper",
	} {
		w := get(t, router, target)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", target, w.Code)
			continue
		}
		var page PageDetail
		_ = json.Unmarshal(w.Body.Bytes(), &page)
		if page.Title != title {
			t.Errorf("%s title = %q, want %q", target, page.Title, title)
		}
	}
}

func TestGetPage_NotFound(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/pages/tools/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing page = %d, want 404", w.Code)
	}
}

func TestTreeAndParams(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/tree")
	if w.Code != http.StatusOK {
		t.Fatalf("tree status = %d", w.Code)
	}
	var tree []pageservice.TreeNode
	_ = json.Unmarshal(w.Body.Bytes(), &tree)
	if len(tree) != 4 || tree[1].URL != "/docs" {
		t.Errorf("tree = %+v", tree)
	}

	w = get(t, router, "/params")
	if w.Code != http.StatusOK {
		t.Fatalf("params status = %d", w.Code)
	}
	var params []pageservice.RouteParams
	_ = json.Unmarshal(w.Body.Bytes(), &params)
	if len(params) != 4 || strings.Join(params[3].Slug, "/") != "tools/planner" {
		t.Errorf("params = %+v", params)
	}
}

func TestListTags(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/tags")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp TagListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	var names []string
	for _, tc := range resp.Tags {
		names = append(names, tc.Tag)
	}
	if strings.Join(names, ",") != "ffmpeg,planning,productivity,video" {
		t.Errorf("tags = %v", names)
	}
}

func TestTagPage(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/tags/Productivity")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tp TagPageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tp)
	if tp.Title != "Productivity Tools" || tp.Count != 1 || tp.Pages[0].Path != "tools/planner" {
		t.Errorf("tag page = %+v", tp)
	}

	w = get(t, router, "/tags/unknown")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tag = %d, want 404", w.Code)
	}
}

func TestSearch_LocalEnriched(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?query=videos")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var hits []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &hits); err != nil {
		t.Fatalf("body = %s: %v", w.Body.String(), err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %v", hits)
	}
	if hits[0]["id"] != "tools/clipper" || hits[0]["url"] != "/docs/tools/clipper" {
		t.Errorf("hit = %v", hits[0])
	}
	tags, _ := hits[0]["tags"].([]any)
	if len(tags) != 2 || tags[0] != "video" || tags[1] != "ffmpeg" {
		t.Errorf("tags = %v", hits[0]["tags"])
	}
}

func TestSearch_QAliasAndEmpty(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?q=videos")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"tools/clipper"`) {
		t.Errorf("q alias = %d %s", w.Code, w.Body.String())
	}

	w = get(t, router, "/search")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty query = %d %q, want 200 []", w.Code, w.Body.String())
	}
}

func TestSearch_Upstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "boom" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"index offline"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"/tools/planner/","score":0.9},{"id":"ghost","score":0.1}]`))
	}))
	defer upstream.Close()

	proxy, err := NewSearchProxy(upstream.URL + "/api/search")
	if err != nil {
		t.Fatal(err)
	}
	router := testEnvWith(t, Options{Upstream: proxy})

	w := get(t, router, "/search?query=plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `[{"id":"/tools/planner/","score":0.9,"tags":["productivity","planning"]},{"id":"ghost","score":0.1,"tags":[]}]`
	if w.Body.String() != want {
		t.Errorf("body = %s\nwant %s", w.Body.String(), want)
	}

	w = get(t, router, "/search?query=boom")
	if w.Code != http.StatusServiceUnavailable || w.Body.String() != `{"error":"index offline"}` {
		t.Errorf("error passthrough = %d %s", w.Code, w.Body.String())
	}
}

func TestSearch_UpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	proxy, err := NewSearchProxy(addr)
	if err != nil {
		t.Fatal(err)
	}
	router := testEnvWith(t, Options{Upstream: proxy})

	w := get(t, router, "/search?query=x")
	if w.Code != http.StatusBadGateway {
		t.Errorf("unreachable upstream = %d, want 502", w.Code)
	}
}

func TestNewSearchProxy_BadScheme(t *testing.T) {
	if _, err := NewSearchProxy("ftp://example.com/search"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	w := get(t, router, "/pages", "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")

	w := get(t, router, "/pages")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	w := get(t, router, "/search?query=x", "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/tags")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := get(t, router, "/events")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// The handler blocks until the request context ends.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE disabled auth = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE valid token = %d, want 200", w.Code)
	}
}

// Embeds.

func embedsEnv(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "planner.html"), []byte("<html>planner</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return testEnvWith(t, Options{EmbedsRoot: dir, AuthEnabled: true, Token: "tok"}), dir
}

func TestServeEmbed(t *testing.T) {
	router, _ := embedsEnv(t)

	// Embeds are public even when the API requires a token.
	w := get(t, router, "/embeds/planner.html")
	if w.Code != http.StatusOK {
		t.Fatalf("embed = %d, want 200", w.Code)
	}
	if w.Body.String() != "<html>planner</html>" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestServeEmbed_NotFound(t *testing.T) {
	router, _ := embedsEnv(t)

	w := get(t, router, "/embeds/nope.html")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing embed = %d, want 404", w.Code)
	}
}

func TestServeEmbed_TraversalBlocked(t *testing.T) {
	_, dir := embedsEnv(t)
	h := NewEmbedHandler(dir)

	for _, name := range []string{"..", "../secret", ".env", "a/b.html"} {
		if _, err := h.safeName(name); err == nil {
			t.Errorf("safeName(%q) should fail", name)
		}
	}
}
