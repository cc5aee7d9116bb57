package pagecontent

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/digitalneighbour/sitekit/modules/catalog"
)

func TestResolver_OverridePaths(t *testing.T) {
	r := NewResolver(NewFSStore(testFS(), nil), testCatalog(t).Index(), nil)

	assert.Equal(t, []string{
		"_defaults/seo/search-engine-optimisation.json",
		"north-island/seo/search-engine-optimisation.json",
		"auckland/seo/search-engine-optimisation.json",
		"central-auckland/seo/search-engine-optimisation.json",
		"parnell/seo/search-engine-optimisation.json",
	}, r.OverridePaths(catalog.SEO, seoSlug, "parnell"))

	assert.Equal(t, []string{
		"_defaults/paidAds/google-ads.json",
		"north-island/paidAds/google-ads.json",
	}, r.OverridePaths(catalog.PaidAds, "google-ads", "north-island"))

	assert.Nil(t, r.OverridePaths(catalog.SEO, seoSlug, "atlantis"))
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewFSStore(testFS(), nil), testCatalog(t).Index(), nil)

	base := r.Base(ctx, catalog.SEO, seoSlug)
	content, applied := r.Resolve(ctx, catalog.SEO, seoSlug, "parnell", base)

	assert.Equal(t, []string{
		"_defaults/seo/search-engine-optimisation.json",
		"auckland/seo/search-engine-optimisation.json",
		"parnell/seo/search-engine-optimisation.json",
	}, applied)

	want := map[string]any{
		"hero": map[string]any{
			"heading":    "Search Engine Optimisation",
			"subheading": "Rank across the Auckland region",
			"paragraph":  "Parnell businesses trust us.",
		},
		"faq":   map[string]any{"items": []any{map[string]any{"question": "How long does SEO take?", "answer": "Usually three to six months."}}},
		"cta":   map[string]any{"label": "Book a call", "href": "/contact"},
		"stats": []any{3.0},
	}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "We help you rank.", base["hero"].(map[string]any)["paragraph"])
}

func TestResolver_MalformedFragmentIsSkipped(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewFSStore(testFS(), nil), testCatalog(t).Index(), nil)

	content, applied := r.Resolve(ctx, catalog.SEO, seoSlug, "wellington", map[string]any{"hero": map[string]any{"heading": "SEO"}})
	assert.Equal(t, []string{"_defaults/seo/search-engine-optimisation.json"}, applied)
	assert.Equal(t, "Book a call", content["cta"].(map[string]any)["label"])
}

func TestResolver_UnknownLocationCopiesBase(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewFSStore(testFS(), nil), testCatalog(t).Index(), nil)

	base := map[string]any{"hero": map[string]any{"heading": "SEO"}}
	content, applied := r.Resolve(ctx, catalog.SEO, seoSlug, "atlantis", base)
	assert.Empty(t, applied)
	assert.Equal(t, base, content)

	content["hero"].(map[string]any)["heading"] = "changed"
	assert.Equal(t, "SEO", base["hero"].(map[string]any)["heading"])
}

func TestResolver_Base(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewFSStore(testFS(), nil), testCatalog(t).Index(), nil)

	assert.Equal(t, map[string]any{
		"hero": map[string]any{"heading": "Local SEO that gets you found", "subheading": "Rank in your neighbourhood."},
	}, r.Base(ctx, catalog.SEO, "local-seo"))
	assert.Equal(t, map[string]any{}, r.Base(ctx, catalog.SEO, "ai-seo"))
	assert.Equal(t, map[string]any{}, r.Base(ctx, catalog.PaidAds, "google-ads"))
}
