package model

import (
	"strings"
	"unicode"
)

const maxSlugLen = 80

// Slugify derives the cache key for a query. It is a pure function:
// identical queries (after trimming and case folding) always produce
// the same slug. Runs of non-alphanumeric characters collapse to a
// single hyphen and the result is length-bounded.
func Slugify(query string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(query)) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
