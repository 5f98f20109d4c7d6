// internal/utils/slug.go
package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphens  = regexp.MustCompile(`-{2,}`)
	slugWhitespc = regexp.MustCompile(`\s+`)
)

// GenerateSlug builds a URL-safe slug from a brand and name plus a short
// disambiguator (typically a prefix of the record UUID). Appending the
// disambiguator gives practical uniqueness without a read-check-write race
// against the database. Pure and deterministic.
func GenerateSlug(brand, name, disambiguator string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{brand, name, disambiguator} {
		if s := slugify(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugWhitespc.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
