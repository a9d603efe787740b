package fakesite

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanPath turns a path from a request into the site-relative form the
// store uses. A single leading "/" is accepted and dropped. It reports
// false when the path cannot name a file on the site:
//   - empty, ".", or "/"
//   - ending with "/"
//   - containing ".." or "//"
//   - containing \ ? # or ~
//   - "." segments
//   - invalid UTF-8, control characters or whitespace
func CleanPath(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")

	if p == "" || p == "." {
		return "", false
	}
	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return "", false
	}
	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return "", false
	}
	if strings.ContainsAny(p, `\?#~`) {
		return "", false
	}
	if !utf8.ValidString(p) {
		return "", false
	}
	if strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return "", false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return "", false
		}
	}

	// Names starting with the temp prefix would be hidden from listings.
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, tmpPrefix) {
			return "", false
		}
	}

	return p, true
}
