package tags

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/kbr/toolsite/internal/models"
)

// Lookup resolves a search hit id to a page.
type Lookup interface {
	GetPage(id string) (models.Page, error)
}

// Enrich adds a "tags" field to every hit of a JSON search response. The
// second return value is false when body is not a JSON array, in which case
// body is returned untouched. Hit order and all other fields are kept as-is.
func Enrich(body []byte, lookup Lookup) ([]byte, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return body, false
	}
	var hits []json.RawMessage
	if err := json.Unmarshal(trimmed, &hits); err != nil {
		return body, false
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, hit := range hits {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(enrichHit(hit, lookup))
	}
	buf.WriteByte(']')
	return buf.Bytes(), true
}

// EnrichResponse applies Enrich to an upstream search response. Bodies of
// non-200 responses are returned verbatim.
func EnrichResponse(status int, body []byte, lookup Lookup) []byte {
	if status != http.StatusOK {
		return body
	}
	out, _ := Enrich(body, lookup)
	return out
}

// HitTags returns the tags of the page referenced by id, or an empty list.
func HitTags(id string, lookup Lookup) []string {
	page, err := lookup.GetPage(id)
	if err != nil {
		return []string{}
	}
	return PageTags(page)
}

func enrichHit(hit json.RawMessage, lookup Lookup) []byte {
	raw := bytes.TrimSpace(hit)
	if len(raw) < 2 || raw[0] != '{' {
		return hit
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return hit
	}

	tags := []string{}
	var id string
	if idRaw, ok := fields["id"]; ok && json.Unmarshal(idRaw, &id) == nil {
		tags = HitTags(id, lookup)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return hit
	}

	if _, exists := fields["tags"]; exists {
		out, ok := replaceField(raw, "tags", tagsJSON)
		if !ok {
			return hit
		}
		return out
	}

	inner := bytes.TrimSpace(raw[1 : len(raw)-1])
	var buf bytes.Buffer
	buf.Grow(len(raw) + len(tagsJSON) + 10)
	buf.WriteByte('{')
	if len(inner) > 0 {
		buf.Write(inner)
		buf.WriteByte(',')
	}
	buf.WriteString(`"tags":`)
	buf.Write(tagsJSON)
	buf.WriteByte('}')
	return buf.Bytes()
}

// replaceField swaps the value of every top-level key in the JSON object
// raw for value, leaving all other bytes untouched.
func replaceField(raw []byte, key string, value []byte) ([]byte, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}

	type span struct{ start, end int64 }
	var spans []span
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		name, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		if name == key {
			end := dec.InputOffset()
			spans = append(spans, span{end - int64(len(v)), end})
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(raw) + len(value))
	var last int64
	for _, sp := range spans {
		buf.Write(raw[last:sp.start])
		buf.Write(value)
		last = sp.end
	}
	buf.Write(raw[last:])
	return buf.Bytes(), true
}
