// Package parser extracts frontmatter and body from Markdown/MDX content.
package parser

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/kbr/toolsite/internal/models"
)

// Result holds the output of parsing a content file.
type Result struct {
	Title       string
	Description string
	Tags        models.Optional[string]
	Date        models.Optional[models.Date]
	Body        string
	// HasFrontmatter is false when the file had none or it was invalid.
	HasFrontmatter bool
	// TitleSet reports that Title came from frontmatter rather than a heading.
	TitleSet bool
}

type envelope struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Tags        tagField     `yaml:"tags"`
	Date        *models.Date `yaml:"date"`
}

// tagField accepts the comma-separated string form and a YAML list, which
// is joined with commas.
type tagField struct {
	raw string
	set bool
}

func (f *tagField) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		f.raw, f.set = s, true
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	f.raw, f.set = strings.Join(list, ","), true
	return nil
}

// Parse splits data into frontmatter fields and body. It never fails:
// content without (or with invalid) frontmatter is returned as body only.
func Parse(data []byte) (*Result, error) {
	var env envelope
	body, err := frontmatter.Parse(bytes.NewReader(data), &env)
	if err != nil {
		return &Result{
			Body:  string(data),
			Title: firstHeading(string(data)),
		}, nil
	}

	r := &Result{
		Title:          strings.TrimSpace(env.Title),
		Description:    strings.TrimSpace(env.Description),
		Body:           strings.TrimLeft(string(body), "\r\n"),
		HasFrontmatter: len(body) != len(data),
	}
	r.TitleSet = r.Title != ""
	if env.Tags.set {
		r.Tags = models.Some(env.Tags.raw)
	}
	if env.Date != nil {
		r.Date = models.Some(*env.Date)
	}
	if r.Title == "" {
		r.Title = firstHeading(r.Body)
	}
	return r, nil
}

// Page builds the page record for file from a parse result.
func (r *Result) Page(file string) models.Page {
	return models.Page{
		File:        file,
		Path:        models.PathFromFile(file),
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Date:        r.Date,
	}
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
