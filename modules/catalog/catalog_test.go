package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit/modules/locations"
)

func testIndex(t *testing.T) *locations.Index {
	t.Helper()
	nodes, err := locations.DefaultTree()
	require.NoError(t, err)
	idx, err := locations.Build(nodes)
	require.NoError(t, err)
	return idx
}

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	rules, err := DefaultRules()
	require.NoError(t, err)
	return New(testIndex(t), rules, "Digital Neighbour", "https://digital-neighbour.com/")
}

func TestDefaultRules_Expansion(t *testing.T) {
	c := defaultCatalog(t)

	allowed := c.AllowedLocations(SEO, "search-engine-optimisation")
	assert.Len(t, allowed, 179)
	assert.Equal(t, "north-island", allowed[0])
	assert.Equal(t, "northland", allowed[1])

	assert.Len(t, c.StaticParams(SEO), 3*179)
	assert.Len(t, c.StaticParams(Social), 4*179)
	assert.Empty(t, c.StaticParams(Hosting))
	assert.Empty(t, c.StaticParams(WebDev))

	assert.Equal(t, []string{"search-engine-optimisation", "seo-audits", "small-business-seo"}, c.EnabledSubServices(SEO))
	assert.Len(t, c.LocationsForFamily(PaidAds), 179)
}

func TestCatalog_TokenExpansion(t *testing.T) {
	rules := Rules{
		SEO: {
			"local-seo":  {"auckland", "central-auckland", "atlantis", "auckland"},
			"seo-audits": {WildcardToken},
			"ai-seo":     {},
		},
	}
	c := New(testIndex(t), rules, "Brand", "https://example.test")

	local := c.AllowedLocations(SEO, "local-seo")
	assert.Len(t, local, 45+1, "auckland subtree plus the unknown token")
	assert.Equal(t, "auckland", local[0])
	assert.Equal(t, "atlantis", local[len(local)-1])

	assert.True(t, c.IsEnabled(SEO, "local-seo", "parnell"))
	assert.True(t, c.IsEnabled(SEO, "local-seo", "atlantis"))
	assert.False(t, c.IsEnabled(SEO, "local-seo", "queenstown"))
	assert.Len(t, c.AllowedLocations(SEO, "seo-audits"), 179)
	assert.Empty(t, c.AllowedLocations(SEO, "ai-seo"))
	assert.Empty(t, c.AllowedLocations(SEO, "wordpress-seo"))
	assert.Empty(t, c.AllowedLocations(Family("nope"), "x"))

	assert.NotContains(t, c.LocationsForFamily(SEO), "atlantis")
	assert.Equal(t, []string{"local-seo", "seo-audits"}, c.EnabledSubServices(SEO))
}

func TestCatalog_AllowedLocationsIsACopy(t *testing.T) {
	c := defaultCatalog(t)
	got := c.AllowedLocations(App, "app-development")
	got[0] = "mutated"
	assert.Equal(t, "north-island", c.AllowedLocations(App, "app-development")[0])
}

func TestCatalog_EnsureLocation(t *testing.T) {
	c := defaultCatalog(t)

	loc, ok := c.EnsureLocation(PaidAds, "google-ads", "Mount Eden")
	assert.True(t, ok)
	assert.Equal(t, "mount-eden", loc)

	_, ok = c.EnsureLocation(PaidAds, "tiktok-ads", "parnell")
	assert.False(t, ok, "sub-service without rules")

	_, ok = c.EnsureLocation(PaidAds, "google-ads", "Atlantis")
	assert.False(t, ok)
}

func TestCatalog_LocationMetadata(t *testing.T) {
	c := defaultCatalog(t)

	got := c.LocationMetadata(SEO, "search-engine-optimisation", "parnell")
	want := Metadata{
		Title:        "Search Engine Optimisation in Parnell | Digital Neighbour",
		Description:  "Get expert search engine optimisation in Parnell, Central Auckland. Partner with Digital Neighbour to rank higher, get found faster, and grow locally.",
		LocationName: "Parnell",
		Region:       "Central Auckland",
		Canonical:    "https://digital-neighbour.com/seo/search-engine-optimisation/parnell",
		OpenGraph: OpenGraph{
			Title:       "Search Engine Optimisation in Parnell | Digital Neighbour",
			Description: "Get expert search engine optimisation in Parnell, Central Auckland. Partner with Digital Neighbour to rank higher, get found faster, and grow locally.",
			Type:        "website",
			URL:         "https://digital-neighbour.com/seo/search-engine-optimisation/parnell",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	root := c.LocationMetadata(WebDev, "web-development", "north-island")
	assert.Empty(t, root.Region)
	assert.Equal(t, "Web Development solutions tailored for North Island. Build high-performing websites with Digital Neighbour's expert team.", root.Description)

	unknown := c.LocationMetadata(App, "app-development", "atlantis")
	assert.Equal(t, "App Development in atlantis | Digital Neighbour", unknown.Title)
}

func TestCatalog_BuildMetadata(t *testing.T) {
	c := defaultCatalog(t)

	md := c.BuildMetadata("Paid Advertising Services", "desc", "/paid-advertisement")
	assert.Equal(t, "Paid Advertising Services | Digital Neighbour", md.Title)
	assert.Equal(t, "https://digital-neighbour.com/paid-advertisement", md.Canonical)

	branded := c.BuildMetadata("About Digital Neighbour", "desc", "/about")
	assert.Equal(t, "About Digital Neighbour", branded.Title)
	assert.Equal(t, branded.Title, branded.OpenGraph.Title)
}

func TestCatalog_DisplayName(t *testing.T) {
	c := defaultCatalog(t)
	assert.Equal(t, "Twitter/X Ads", c.DisplayName(PaidAds, "twitter-x-ads"))
	assert.Equal(t, "Hosting & IT Security", c.DisplayName(Hosting, "hosting-it-security"))
	assert.Equal(t, "Brand New Thing", c.DisplayName(SEO, "brand-new-thing"))
	assert.Equal(t, "whatever", c.DisplayName(Family("nope"), "whatever"))
}

func TestCatalog_RewriteShortPath(t *testing.T) {
	c := defaultCatalog(t)

	slug, loc, ok := c.RewriteShortPath(SEO, "Parnell")
	assert.True(t, ok)
	assert.Equal(t, "search-engine-optimisation", slug)
	assert.Equal(t, "parnell", loc)

	slug, loc, ok = c.RewriteShortPath(PaidAds, "google-ads")
	assert.True(t, ok)
	assert.Equal(t, "google-ads", slug)
	assert.Empty(t, loc)

	_, _, ok = c.RewriteShortPath(PaidAds, "atlantis")
	assert.False(t, ok)
}

func TestHumanizeSlug(t *testing.T) {
	tests := map[string]string{
		"local-seo":             "Local SEO",
		"ai-seo":                "AI SEO",
		"youtube-ads":           "YouTube Ads",
		"b2b-linkedin-ads":      "B2B LinkedIn Ads",
		"wordpress--seo":        "WordPress SEO",
		"mount-eden":            "Mount Eden",
		"twitter-x-ads":         "Twitter X Ads",
		"SHOUTY-slug":           "Shouty Slug",
		"":                      "",
		"voice-search-for-smbs": "Voice Search For Smbs",
	}
	for in, want := range tests {
		assert.Equal(t, want, HumanizeSlug(in), in)
	}
}

func TestFamilies(t *testing.T) {
	fams := Families()
	require.Len(t, fams, 7)
	assert.Equal(t, SEO, fams[0].Key)
	assert.Len(t, fams[1].Slugs, 18)

	f, ok := ParseFamily("paid-advertisement")
	assert.True(t, ok)
	assert.Equal(t, PaidAds, f)

	f, ok = ParseFamily("WEBDEV")
	assert.True(t, ok)
	assert.Equal(t, WebDev, f)

	_, ok = ParseFamily("plumbing")
	assert.False(t, ok)

	assert.Equal(t, "/seo/local-seo/parnell", PagePath(SEO, "local-seo", "parnell"))
	assert.Equal(t, "/hosting-it-security/web-hosting", PagePath(Hosting, "web-hosting", ""))
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules(strings.NewReader("webDev:\n  web-development: ['*']\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, rules[WebDev]["web-development"])

	_, err = ParseRules(strings.NewReader("plumbing:\n  pipes: ['*']\n"))
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = ParseRules(strings.NewReader("seo: [unclosed"))
	assert.ErrorIs(t, err, ErrRulesDecode)

	empty, err := ParseRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
