package pagecontent

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestInjectLocation(t *testing.T) {
	long := "We build search strategies that compound month after month for local businesses."
	tests := []struct {
		name     string
		text     string
		location string
		want     string
	}{
		{"empty text", "", "Auckland", ""},
		{"empty location", "SEO Services", "", "SEO Services"},
		{"already mentioned", "SEO for AUCKLAND firms", "Auckland", "SEO for AUCKLAND firms"},
		{"short appended", "SEO Services", "Parnell", "SEO Services in Parnell"},
		{"short before full stop", "Grow your business.", "Parnell", "Grow your business in Parnell."},
		{"short before question mark", "Ready to rank?", "Taupō", "Ready to rank in Taupō?"},
		{"trailing space trimmed", "Grow faster  \n", "Nelson", "Grow faster in Nelson"},
		{"long gets lead-in", long, "Hamilton", "Based in Hamilton, " + long},
		{"long already based", "Based in Wellington, " + long + "  ", "Hamilton", "Based in Wellington, " + long + "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InjectLocation(tt.text, tt.location))
		})
	}
}

func TestInjectLocation_SixtyRunesIsShort(t *testing.T) {
	text := strings.Repeat("ā", 60)
	assert.Equal(t, text+" in Napier", InjectLocation(text, "Napier"))
	assert.Equal(t, "Based in Napier, "+text+"b", InjectLocation(text+"b", "Napier"))
}

func TestPersonalize(t *testing.T) {
	content := map[string]any{
		"hero": map[string]any{"heading": "Search Engine Optimisation", "subheading": "Get found.", "image": "/hero.png"},
		"introParagraph": map[string]any{
			"heading":    "Why SEO",
			"paragraphs": []any{"Short one.", 42.0},
		},
		"faq": map[string]any{
			"items": []any{map[string]any{"question": "How long?", "answer": "A while.", "id": 1.0}},
			"faqs":  []any{map[string]any{"q": "Cost?", "a": "Depends."}},
		},
		"services": map[string]any{"items": []any{"Plain string item"}},
		"cta":      map[string]any{"heading": "Untouched"},
		"features": "not an object",
	}

	got := Personalize(content, "Parnell")

	want := map[string]any{
		"hero": map[string]any{"heading": "Search Engine Optimisation in Parnell", "subheading": "Get found in Parnell.", "image": "/hero.png"},
		"introParagraph": map[string]any{
			"heading":    "Why SEO in Parnell",
			"paragraphs": []any{"Short one in Parnell.", 42.0},
		},
		"faq": map[string]any{
			"items": []any{map[string]any{"question": "How long in Parnell?", "answer": "A while in Parnell.", "id": 1.0}},
			"faqs":  []any{map[string]any{"q": "Cost in Parnell?", "a": "Depends in Parnell."}},
		},
		"services": map[string]any{"items": []any{"Plain string item in Parnell"}},
		"cta":      map[string]any{"heading": "Untouched"},
		"features": "not an object",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Personalize mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Search Engine Optimisation", content["hero"].(map[string]any)["heading"])
}

func TestPersonalize_LowercaseSectionAliases(t *testing.T) {
	got := Personalize(map[string]any{
		"painpoints":  map[string]any{"painPoints": []any{map[string]any{"problem": "No leads", "solution": "Better SEO"}}},
		"keybenefits": map[string]any{"benefits": []any{map[string]any{"title": "Visibility", "description": "Show up"}}},
	}, "Tauranga")

	pp := got["painpoints"].(map[string]any)["painPoints"].([]any)[0].(map[string]any)
	assert.Equal(t, "No leads in Tauranga", pp["problem"])
	assert.Equal(t, "Better SEO in Tauranga", pp["solution"])

	kb := got["keybenefits"].(map[string]any)["benefits"].([]any)[0].(map[string]any)
	assert.Equal(t, "Visibility in Tauranga", kb["title"])
}

func TestPersonalize_EmptyLocationCopies(t *testing.T) {
	content := map[string]any{"hero": map[string]any{"heading": "SEO"}}
	got := Personalize(content, "")
	assert.Equal(t, content, got)

	got["hero"].(map[string]any)["heading"] = "changed"
	assert.Equal(t, "SEO", content["hero"].(map[string]any)["heading"])
}

func TestPersonalize_StringAndListSections(t *testing.T) {
	content := map[string]any{
		"features":  "Features that grow your brand",
		"strategic": []any{"Strategic planning", 42.0, "Quarterly reviews."},
		"cta":       "Book a call",
	}
	got := Personalize(content, "Parnell")

	want := map[string]any{
		"features":  "Features that grow your brand in Parnell",
		"strategic": []any{"Strategic planning in Parnell", 42.0, "Quarterly reviews in Parnell."},
		"cta":       "Book a call",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Personalize mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Strategic planning", content["strategic"].([]any)[0])
}
