// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the tools site's pages and tags for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kbr/toolsite/internal/apperr"
	"github.com/kbr/toolsite/internal/index"
	"github.com/kbr/toolsite/internal/models"
	"github.com/kbr/toolsite/internal/pageservice"
	"github.com/kbr/toolsite/internal/storage"
	"github.com/kbr/toolsite/internal/tags"
)

const (
	contractURI        = "toolsite://frontmatter"
	defaultSearchLimit = 20
)

// Server wraps the MCP server with the site tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *pageservice.Service
	store storage.Provider
	db    index.PageIndex
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, db index.PageIndex, version string) *Server {
	s := &Server{
		svc:   pageservice.NewService(store, db),
		store: store,
		db:    db,
	}

	s.mcp = server.NewMCPServer(
		"toolsite",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through page titles, descriptions, tags and content. "+
			"Every hit carries the tags of the page it points to."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the raw MDX/Markdown source of a page, frontmatter included."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page id (e.g. tools/planner; a folder id resolves its index page)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages, or the pages under a folder, as path and title."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix (e.g. tools)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of pages carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_tag_pages",
		mcp.WithDescription("List the pages carrying a tag (case-insensitive)."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to look up")),
	), s.getTagPages)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the page frontmatter contract. "+
			"Call this before editing pages so tags and metadata stay consistent."),
	), s.getFrontmatterContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Frontmatter Contract",
			mcp.WithResourceDescription("Frontmatter fields every content page uses."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := defaultSearchLimit
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		limit = n
	}
	hits, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pages, err := s.db.ListPages()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := json.Marshal(hits)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	enriched, _ := tags.Enrich(raw, models.Pages(pages))

	var out []map[string]any
	if err := json.Unmarshal(enriched, &out); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.db.GetPage(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	data, err := s.store.Read(page.File)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	items, err := s.svc.ListPages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, it := range items {
		if folder != "" && !strings.HasPrefix(it.Path, folder+"/") {
			continue
		}
		lines = append(lines, it.Path+"\t"+it.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	lines := make([]string, len(list))
	for i, tc := range list {
		lines[i] = fmt.Sprintf("%s (%d)", tc.Tag, tc.Count)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getTagPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tp, err := s.svc.TagPage(ctx, tag)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no pages tagged %q", tags.Normalize(tag))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tp)
}

func (s *Server) getFrontmatterContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
