package locations

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a location slug: lowercased, diacritics
// folded ("Ōtāhuhu" -> "otahuhu"), "&" spelled "and", anything outside
// [a-z0-9] removed and words joined by single hyphens.
func Slugify(s string) string {
	// transform.Chain is stateful, so each call builds its own.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(fold, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	folded = strings.ReplaceAll(folded, "&", "and")
	folded = slugInvalid.ReplaceAllString(folded, "")
	folded = slugWhitespace.ReplaceAllString(strings.TrimSpace(folded), "-")
	folded = slugHyphens.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}
