package models

import (
	"encoding/json"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Date is the frontmatter "date" field. It accepts either a YAML date or a
// free-form string; Raw keeps the original text when it cannot be parsed.
type Date struct {
	Time time.Time
	Raw  string
}

// ParseDate parses s with the supported layouts.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Raw: s}
		}
	}
	return Date{Raw: s}
}

// Valid reports whether the date was understood.
func (d Date) Valid() bool {
	return !d.Time.IsZero()
}

// Before orders two dates; unparsed dates sort last.
func (d Date) Before(o Date) bool {
	if !d.Valid() || !o.Valid() {
		return d.Valid()
	}
	return d.Time.Before(o.Time)
}

func (d Date) String() string {
	if !d.Valid() {
		return d.Raw
	}
	if d.Time.Hour() == 0 && d.Time.Minute() == 0 && d.Time.Second() == 0 {
		return d.Time.Format("2006-01-02")
	}
	return d.Time.Format(time.RFC3339)
}

// UnmarshalYAML accepts both string and timestamp scalars. The callback form
// is understood by yaml.v2 and yaml.v3 alike.
func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*d = ParseDate(s)
		return nil
	}
	var t time.Time
	if err := unmarshal(&t); err != nil {
		return err
	}
	*d = Date{Time: t, Raw: t.Format(time.RFC3339)}
	return nil
}

// MarshalJSON encodes the date as its string form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads the string form written by MarshalJSON.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}
