package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var wordOverrides = map[string]string{
	"ai":        "AI",
	"app":       "App",
	"b2b":       "B2B",
	"b2c":       "B2C",
	"cms":       "CMS",
	"cta":       "CTA",
	"d2c":       "D2C",
	"erp":       "ERP",
	"mvp":       "MVP",
	"orm":       "ORM",
	"ppc":       "PPC",
	"pr":        "PR",
	"seo":       "SEO",
	"sge":       "SGE",
	"smb":       "SMB",
	"ugc":       "UGC",
	"ux":        "UX",
	"voice":     "Voice",
	"vps":       "VPS",
	"x":         "X",
	"youtube":   "YouTube",
	"linkedin":  "LinkedIn",
	"facebook":  "Facebook",
	"tiktok":    "TikTok",
	"snapchat":  "Snapchat",
	"wordpress": "WordPress",
	"shopify":   "Shopify",
	"bing":      "Bing",
}

// HumanizeSlug turns "local-seo-for-smb" into "Local SEO For SMB", keeping
// acronyms and brand spellings.
func HumanizeSlug(slug string) string {
	var words []string
	for _, segment := range strings.Split(slug, "-") {
		if segment == "" {
			continue
		}
		lower := strings.ToLower(segment)
		if override, ok := wordOverrides[lower]; ok {
			words = append(words, override)
			continue
		}
		words = append(words, upperFirst(lower))
	}
	return strings.Join(words, " ")
}

// titleWords replaces hyphens with spaces and upper-cases the first letter
// of each word, leaving the rest as is.
func titleWords(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
