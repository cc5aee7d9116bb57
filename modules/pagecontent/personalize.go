package pagecontent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// shortTextLimit separates headings, which get " in <location>" woven in,
// from paragraphs, which get a "Based in <location>," lead-in.
const shortTextLimit = 60

var basedInPrefix = regexp.MustCompile(`(?i)^based in\s`)

// InjectLocation mentions location in text unless it already does.
func InjectLocation(text, location string) string {
	if text == "" || location == "" {
		return text
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(location)) {
		return text
	}

	trimmed := strings.TrimRightFunc(text, isSpace)
	if utf8.RuneCountInString(trimmed) <= shortTextLimit {
		if n := len(trimmed); n > 0 && strings.ContainsRune(".!?", rune(trimmed[n-1])) {
			return trimmed[:n-1] + " in " + location + trimmed[n-1:]
		}
		return trimmed + " in " + location
	}

	if basedInPrefix.MatchString(trimmed) {
		return text
	}
	return "Based in " + location + ", " + trimmed
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// section lists the text fields of one content section and the arrays of
// objects inside it whose fields are also personalized.
type section struct {
	fields      []string
	collections map[string][]string
}

var sections = map[string]section{
	"hero":           {fields: []string{"heading", "subheading", "paragraph"}},
	"form":           {fields: []string{"heading", "subheading", "description"}},
	"introParagraph": {fields: []string{"heading", "paragraphs"}},
	"introparagraph": {fields: []string{"heading", "paragraphs"}},
	"painPoints": {
		fields:      []string{"heading", "subheading"},
		collections: map[string][]string{"painPoints": {"problem", "solution"}},
	},
	"painpoints": {
		fields:      []string{"heading", "subheading"},
		collections: map[string][]string{"painPoints": {"problem", "solution"}},
	},
	"services": {
		fields:      []string{"heading", "subheading"},
		collections: map[string][]string{"items": {"title", "description"}},
	},
	"content":   {fields: []string{"heading", "text1", "text2", "text3"}},
	"strategic": {fields: []string{"heading", "subheading"}},
	"keyBenefits": {
		fields:      []string{"heading", "subheading"},
		collections: map[string][]string{"benefits": {"title", "description"}},
	},
	"keybenefits": {
		fields:      []string{"heading", "subheading"},
		collections: map[string][]string{"benefits": {"title", "description"}},
	},
	"features": {fields: []string{"heading", "subheading"}},
	"faq": {
		fields: []string{"heading", "subheading"},
		collections: map[string][]string{
			"items": {"question", "answer"},
			"faqs":  {"q", "a"},
		},
	},
}

// Personalize returns a copy of content with location worked into the
// headings and copy of the known sections. Other keys pass through as is.
func Personalize(content map[string]any, location string) map[string]any {
	out := DeepCopy(content)
	if location == "" {
		return out
	}

	for name, sec := range sections {
		var obj map[string]any
		switch v := out[name].(type) {
		case string, []any:
			out[name] = injectValue(v, location)
			continue
		case map[string]any:
			obj = v
		default:
			continue
		}
		for _, field := range sec.fields {
			if v, ok := obj[field]; ok {
				obj[field] = injectValue(v, location)
			}
		}
		for key, fields := range sec.collections {
			items, ok := obj[key].([]any)
			if !ok {
				continue
			}
			for i, item := range items {
				items[i] = injectFields(item, fields, location)
			}
		}
	}
	return out
}

// injectValue handles a string or an array of strings; anything else is
// returned unchanged.
func injectValue(v any, location string) any {
	switch t := v.(type) {
	case string:
		return InjectLocation(t, location)
	case []any:
		for i, item := range t {
			if s, ok := item.(string); ok {
				t[i] = InjectLocation(s, location)
			}
		}
		return t
	default:
		return v
	}
}

func injectFields(item any, fields []string, location string) any {
	switch t := item.(type) {
	case string:
		return InjectLocation(t, location)
	case map[string]any:
		for _, f := range fields {
			if s, ok := t[f].(string); ok {
				t[f] = InjectLocation(s, location)
			}
		}
		return t
	default:
		return item
	}
}
