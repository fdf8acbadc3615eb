package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kbr/toolsite/internal/apperr"
)

func TestSlugID(t *testing.T) {
	cases := map[string]string{
		"":             "index",
		"/":            "index",
		"tools/foo":    "tools/foo",
		"/tools//foo/": "tools/foo",
		"docs/index":   "docs/index",
		"single":       "single",
	}
	for in, want := range cases {
		if got := SlugID(in); got != want {
			t.Errorf("SlugID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathFromFile(t *testing.T) {
	cases := map[string]string{
		"tools/foo.mdx": "tools/foo",
		"notes/bar.md":  "notes/bar",
		"index.mdx":     "index",
	}
	for in, want := range cases {
		if got := PathFromFile(in); got != want {
			t.Errorf("PathFromFile(%q) = %q, want %q", in, got, want)
		}
	}
	if !IsContentFile("a.mdx") || !IsContentFile("a.md") {
		t.Error(".md and .mdx should be content files")
	}
	if IsContentFile("a.txt") {
		t.Error(".txt should not be a content file")
	}
}

func TestPages_GetPage_IndexSuffix(t *testing.T) {
	ps := Pages{
		{Path: "tools/foo", Title: "Foo"},
		{Path: "guides/index", Title: "Guides"},
		{Path: "index", Title: "Home"},
	}

	for id, want := range map[string]string{
		"tools/foo": "Foo",
		"/guides/":  "Guides",
		"":          "Home",
	} {
		p, err := ps.GetPage(id)
		if err != nil {
			t.Fatalf("GetPage(%q): %v", id, err)
		}
		if p.Title != want {
			t.Errorf("GetPage(%q).Title = %q, want %q", id, p.Title, want)
		}
	}

	if _, err := ps.GetPage("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetPage(missing) err = %v, want ErrNotFound", err)
	}
}

func TestPage_URLAndDisplayName(t *testing.T) {
	urls := map[string]string{
		"tools/foo":     "/docs/tools/foo",
		"index":         "/docs",
		"guides/index":  "/docs/guides",
		"tools/reindex": "/docs/tools/reindex",
	}
	for path, want := range urls {
		if got := (Page{Path: path}).URL(); got != want {
			t.Errorf("URL(%q) = %q, want %q", path, got, want)
		}
	}

	p := Page{Path: "tools/foo"}
	if p.DisplayName() != "tools/foo" {
		t.Errorf("DisplayName = %q", p.DisplayName())
	}
	p.Title = "Foo"
	if p.DisplayName() != "Foo" {
		t.Errorf("DisplayName = %q", p.DisplayName())
	}
	if (Page{}).DisplayName() != "Untitled" {
		t.Errorf("empty DisplayName = %q", Page{}.DisplayName())
	}
}

func TestOptional(t *testing.T) {
	o := None[string]()
	if _, ok := o.Get(); ok || o.IsSet() {
		t.Error("None should be absent")
	}

	o = Some("a, b")
	if v, ok := o.Get(); !ok || v != "a, b" {
		t.Errorf("Get = %q, %v", v, ok)
	}

	raw, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some("x")})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"a":"x","b":null}` {
		t.Errorf("json = %s", raw)
	}
}

func TestOptionalDate_JSONRoundTrip(t *testing.T) {
	type item struct {
		Date Optional[Date] `json:"date"`
	}
	cases := []struct {
		name  string
		in    item
		json  string
		set   bool
		valid bool
		text  string
	}{
		{"present", item{Date: Some(ParseDate("2024-01-15"))}, `{"date":"2024-01-15"}`, true, true, "2024-01-15"},
		{"absent", item{}, `{"date":null}`, false, false, ""},
		{"unparsable", item{Date: Some(ParseDate("spring 2024"))}, `{"date":"spring 2024"}`, true, false, "spring 2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(raw) != tc.json {
				t.Fatalf("marshal = %s, want %s", raw, tc.json)
			}

			out := item{Date: Some(ParseDate("1999-01-01"))}
			if err := json.Unmarshal(raw, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			d, ok := out.Date.Get()
			if ok != tc.set {
				t.Fatalf("set = %v, want %v", ok, tc.set)
			}
			if d.Valid() != tc.valid || d.String() != tc.text {
				t.Errorf("date = %+v, want valid=%v text=%q", d, tc.valid, tc.text)
			}
			if tc.valid && !d.Time.Equal(tc.in.Date.OrZero().Time) {
				t.Errorf("time = %v, want %v", d.Time, tc.in.Date.OrZero().Time)
			}
		})
	}
}

func TestDate_UnmarshalJSONRejectsNonString(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`42`), &d); err == nil {
		t.Error("expected error for numeric date")
	}
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2024-03-05")
	if !d.Valid() {
		t.Fatal("expected valid date")
	}
	if !d.Time.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("time = %v", d.Time)
	}
	if d.String() != "2024-03-05" {
		t.Errorf("String = %q", d.String())
	}

	d = ParseDate("sometime soon")
	if d.Valid() || d.String() != "sometime soon" {
		t.Errorf("free-form date = %+v", d)
	}
}

func TestDate_Before(t *testing.T) {
	older := ParseDate("2023-01-01")
	newer := ParseDate("2024-01-01")
	bad := ParseDate("n/a")
	if !older.Before(newer) || newer.Before(older) {
		t.Error("dated ordering wrong")
	}
	if !older.Before(bad) || bad.Before(older) {
		t.Error("unparsed dates should sort last")
	}
}

func TestDate_UnmarshalYAML(t *testing.T) {
	var fm struct {
		Plain  Date `yaml:"plain"`
		Quoted Date `yaml:"quoted"`
	}
	if err := yaml.Unmarshal([]byte("plain: 2024-06-01\nquoted: \"June 2, 2024\"\n"), &fm); err != nil {
		t.Fatal(err)
	}
	if fm.Plain.String() != "2024-06-01" {
		t.Errorf("plain = %q", fm.Plain.String())
	}
	if !fm.Quoted.Valid() || fm.Quoted.Time.Day() != 2 {
		t.Errorf("quoted = %+v", fm.Quoted)
	}
}
