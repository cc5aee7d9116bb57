package pagecontent

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/locations"
)

const seoSlug = "search-engine-optimisation"

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	nodes, err := locations.DefaultTree()
	require.NoError(t, err)
	idx, err := locations.Build(nodes)
	require.NoError(t, err)
	rules, err := catalog.DefaultRules()
	require.NoError(t, err)
	return catalog.New(idx, rules, "Digital Neighbour", "https://digital-neighbour.com")
}

// testFS is a small data root: base content for two SEO sub-services,
// family defaults, and overrides for Auckland and Parnell.
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"_base/seo.json": {Data: []byte(`{
			"search-engine-optimisation": {
				"hero": {"heading": "Search Engine Optimisation", "paragraph": "We help you rank."},
				"faq": {"items": [{"question": "How long does SEO take?", "answer": "Usually three to six months."}]},
				"cta": {"label": "Get a free audit"}
			},
			"local-seo": {"hero": {"heading": "Local SEO that gets you found", "subheading": "Rank in your neighbourhood."}},
			"seo-audits": {"introparagraph": {"heading": "Own the map pack."}}
		}`)},
		"_defaults/seo/search-engine-optimisation.json":  {Data: []byte(`{"cta": {"label": "Book a call", "href": "/contact"}}`)},
		"auckland/seo/search-engine-optimisation.json":   {Data: []byte(`{"hero": {"subheading": "Rank across the Auckland region"}, "stats": [1, 2]}`)},
		"parnell/seo/search-engine-optimisation.json":    {Data: []byte(`{"stats": [3], "hero": {"paragraph": "Parnell businesses trust us."}}`)},
		"wellington/seo/search-engine-optimisation.json": {Data: []byte(`{not json`)},
	}
}

// countingStore records how many reads reach the underlying store.
type countingStore struct {
	FragmentStore
	mu    sync.Mutex
	reads int
}

func (s *countingStore) Read(ctx context.Context, path string) (map[string]any, bool, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.FragmentStore.Read(ctx, path)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
