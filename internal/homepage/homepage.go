// Package homepage regenerates the "Available Tools" section of the site's
// index page from the frontmatter of the tool pages.
package homepage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/kbr/toolsite/internal/models"
	"github.com/kbr/toolsite/internal/parser"
	"github.com/kbr/toolsite/internal/storage"
	"github.com/kbr/toolsite/internal/tags"
)

const (
	ToolsDir  = "tools"
	IndexFile = "index.mdx"

	sectionStart  = "## Available Tools"
	otherCategory = "Other Tools"
)

var (
	ErrNoSection    = errors.New(`homepage: could not find "## Available Tools" section`)
	ErrNoSectionEnd = errors.New("homepage: could not find end of tools section")
)

// sectionEnd matches a thematic break or the next second-level heading.
var sectionEnd = regexp.MustCompile(`\n---\n|\n## `)

var categoryByTag = map[string]string{
	"productivity":    "Productivity",
	"planning":        "Productivity",
	"time-management": "Productivity",
	"scheduling":      "Productivity",

	"video":       "Media & Video",
	"audio":       "Media & Video",
	"conversion":  "Media & Video",
	"compression": "Media & Video",
	"editing":     "Media & Video",
	"ffmpeg":      "Media & Video",

	"image": "Image Processing",
	"photo": "Image Processing",

	"text":     "Text Tools",
	"markdown": "Text Tools",

	"data": "Data Tools",
	"json": "Data Tools",
	"csv":  "Data Tools",
}

// Tool is one entry of the generated list.
type Tool struct {
	Title       string
	Description string
	Date        models.Optional[models.Date]
	Slug        string
	Category    string
}

// Category returns the category of the first tag that has one.
func Category(rawTags string) string {
	for _, tag := range tags.Parse(rawTags) {
		if c, ok := categoryByTag[tag]; ok {
			return c
		}
	}
	return otherCategory
}

// Scan reads the .mdx files directly under the tools directory. Files
// without a frontmatter title are skipped.
func Scan(store storage.Provider) ([]Tool, error) {
	files, err := store.List(ToolsDir)
	if err != nil {
		return nil, fmt.Errorf("homepage: scan tools: %w", err)
	}

	var tools []Tool
	for _, fm := range files {
		if path.Dir(fm.File) != ToolsDir || path.Ext(fm.File) != ".mdx" {
			continue
		}
		data, err := store.Read(fm.File)
		if err != nil {
			return nil, fmt.Errorf("homepage: read %s: %w", fm.File, err)
		}
		res, _ := parser.Parse(data)
		if !res.TitleSet {
			continue
		}
		tools = append(tools, Tool{
			Title:       res.Title,
			Description: res.Description,
			Date:        res.Date,
			Slug:        strings.TrimSuffix(path.Base(fm.File), ".mdx"),
			Category:    Category(res.Tags.OrZero()),
		})
	}

	Sort(tools)
	return tools, nil
}

// Sort orders tools newest first when both carry a date, by title otherwise.
func Sort(tools []Tool) {
	sort.SliceStable(tools, func(i, j int) bool {
		a, b := tools[i], tools[j]
		da, okA := a.Date.Get()
		db, okB := b.Date.Get()
		if okA && okB {
			return db.Before(da)
		}
		la, lb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if la != lb {
			return la < lb
		}
		return a.Title < b.Title
	})
}

// Generate renders the tools list grouped by category. Categories are
// alphabetical; tools keep their order within a category.
func Generate(tools []Tool) string {
	groups := make(map[string][]Tool)
	for _, t := range tools {
		groups[t.Category] = append(groups[t.Category], t)
	}
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(sectionStart + "\n\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "### %s\n\n", c)
		for _, t := range groups[c] {
			fmt.Fprintf(&b, "* <p><a href=\"tools/%s\">%s</a> - %s</p>\n", t.Slug, t.Title, t.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// Replace swaps the tools section of content for list. The section runs
// from "## Available Tools" up to the next "---" line or "## " heading.
func Replace(content, list string) (string, error) {
	start := strings.Index(content, sectionStart)
	if start == -1 {
		return "", ErrNoSection
	}
	rest := content[start+len(sectionStart):]
	loc := sectionEnd.FindStringIndex(rest)
	if loc == nil {
		return "", ErrNoSectionEnd
	}
	end := start + len(sectionStart) + loc[0]
	return content[:start] + list + "\n" + content[end:], nil
}

// Update regenerates the tools section of the index page and reports
// progress to w. It returns the number of tools listed.
func Update(store storage.Provider, w io.Writer) (int, error) {
	faint := color.New(color.Faint)
	faint.Fprintln(w, "Scanning tools...")
	tools, err := Scan(store)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(w, "Found %s\n", color.CyanString("%d tool(s)", len(tools)))

	data, err := store.Read(IndexFile)
	if err != nil {
		return 0, fmt.Errorf("homepage: read %s: %w", IndexFile, err)
	}
	faint.Fprintf(w, "Updating %s...\n", IndexFile)
	updated, err := Replace(string(data), Generate(tools))
	if err != nil {
		return 0, err
	}
	if err := store.Write(IndexFile, []byte(updated)); err != nil {
		return 0, fmt.Errorf("homepage: write %s: %w", IndexFile, err)
	}
	color.New(color.FgGreen).Fprintf(w, "✓ Updated %s with tool list\n", IndexFile)
	return len(tools), nil
}
