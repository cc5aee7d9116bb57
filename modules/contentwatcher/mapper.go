package contentwatcher

import (
	"path"
	"slices"
	"strings"

	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/locations"
	"github.com/digitalneighbour/sitekit/modules/pagecontent"
)

// Mapper turns a changed fragment file into the cached pages it affects.
type Mapper struct {
	index *locations.Index
}

// Targets lists the page paths to drop exactly and the path prefixes whose
// pages are all dropped.
type Targets struct {
	Paths    []string
	Prefixes []string
}

// Empty reports whether t affects no pages.
func (t Targets) Empty() bool {
	return len(t.Paths) == 0 && len(t.Prefixes) == 0
}

// NewMapper creates a mapper. Without an index, a location override
// invalidates the sub-service's pages at every location.
func NewMapper(index *locations.Index) *Mapper {
	return &Mapper{index: index}
}

// Targets maps rel, a slash path relative to the data root. Files outside
// the fragment layout map to nothing.
func (m *Mapper) Targets(rel string) Targets {
	if path.Ext(rel) != ".json" {
		return Targets{}
	}
	parts := strings.Split(strings.TrimSuffix(rel, ".json"), "/")

	switch {
	case len(parts) == 2 && parts[0] == pagecontent.BaseDir:
		info, ok := catalog.LookupFamily(catalog.Family(parts[1]))
		if !ok {
			return Targets{}
		}
		return Targets{Prefixes: []string{info.BasePath + "/"}}

	case len(parts) == 3 && parts[0] == pagecontent.DefaultsDir:
		family, slug := catalog.Family(parts[1]), parts[2]
		if _, ok := catalog.LookupFamily(family); !ok || slug == "" {
			return Targets{}
		}
		return Targets{Prefixes: []string{catalog.PagePath(family, slug, "") + "/"}}

	case len(parts) == 3:
		location, family, slug := parts[0], catalog.Family(parts[1]), parts[2]
		if _, ok := catalog.LookupFamily(family); !ok || slug == "" || strings.HasPrefix(location, "_") {
			return Targets{}
		}
		if m.index == nil || !m.index.Has(location) {
			return Targets{Prefixes: []string{catalog.PagePath(family, slug, "") + "/"}}
		}
		// Descendants inherit their ancestors' overrides. Exact paths keep
		// "whangarei" from matching "whangarei-heads".
		var out Targets
		for _, loc := range m.index.Descendants(location, true) {
			out.Paths = append(out.Paths, catalog.PagePath(family, slug, loc))
		}
		return out
	}
	return Targets{}
}

// TargetsFor maps every file in files, dropping duplicates and anything
// already covered by a prefix.
func (m *Mapper) TargetsFor(files []string) Targets {
	var paths, prefixes []string
	for _, f := range files {
		t := m.Targets(f)
		paths = append(paths, t.Paths...)
		prefixes = append(prefixes, t.Prefixes...)
	}
	prefixes = collapse(prefixes)

	var out Targets
	out.Prefixes = prefixes
	for _, p := range paths {
		if !coveredBy(p, prefixes) && !slices.Contains(out.Paths, p) {
			out.Paths = append(out.Paths, p)
		}
	}
	return out
}

func collapse(prefixes []string) []string {
	var out []string
	for _, p := range prefixes {
		covered := false
		for _, q := range prefixes {
			if q != p && strings.HasPrefix(p, q) {
				covered = true
				break
			}
		}
		if !covered && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func coveredBy(pagePath string, prefixes []string) bool {
	for _, q := range prefixes {
		if strings.HasPrefix(pagePath, q) {
			return true
		}
	}
	return false
}
