package tags

import (
	"regexp"
	"strings"
)

// Tag identifiers used in fragment links are lowercase alnum and hyphens.
var tagFragmentRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// TagPath returns the listing route of a tag.
func TagPath(tag string) string {
	return "/tags/" + tag
}

// HashLinkTarget reports whether href is an in-page link to a tag fragment
// such as "#video" and returns the tag listing route to use instead.
// Fragments with uppercase letters, slashes or other characters are left alone.
func HashLinkTarget(href string) (string, bool) {
	frag, ok := strings.CutPrefix(href, "#")
	if !ok {
		return "", false
	}
	if !tagFragmentRe.MatchString(frag) {
		return "", false
	}
	return TagPath(frag), true
}
