package pagecontent

import (
	"context"
	"path"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/locations"
)

// Directory names under the data root that are not location slugs.
const (
	BaseDir     = "_base"
	DefaultsDir = "_defaults"
)

// Resolver layers override fragments onto base content.
type Resolver struct {
	store  FragmentStore
	index  *locations.Index
	logger sitekit.Logger
}

// NewResolver creates a resolver. logger may be nil.
func NewResolver(store FragmentStore, index *locations.Index, logger sitekit.Logger) *Resolver {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	return &Resolver{store: store, index: index, logger: logger}
}

// BasePath is the fragment holding a family's base content, keyed by
// sub-service slug.
func BasePath(family catalog.Family) string {
	return path.Join(BaseDir, string(family)+".json")
}

// DefaultsPath is the family-wide override for a sub-service.
func DefaultsPath(family catalog.Family, slug string) string {
	return path.Join(DefaultsDir, string(family), slug+".json")
}

// LocationPath is the override for a sub-service at one location.
func LocationPath(location string, family catalog.Family, slug string) string {
	return path.Join(location, string(family), slug+".json")
}

// OverridePaths lists the fragments applied for a page, least specific
// first: the family defaults, each ancestor from the root down, then the
// location itself. Unknown locations have no overrides.
func (r *Resolver) OverridePaths(family catalog.Family, slug, location string) []string {
	meta, ok := r.index.Get(location)
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(meta.Ancestors)+2)
	paths = append(paths, DefaultsPath(family, slug))
	for _, ancestor := range meta.Ancestors {
		paths = append(paths, LocationPath(ancestor, family, slug))
	}
	return append(paths, LocationPath(location, family, slug))
}

// Resolve merges every existing override onto a copy of base and returns
// the result with the paths of the fragments that were applied. Fragments
// that cannot be read or decoded are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, family catalog.Family, slug, location string, base map[string]any) (map[string]any, []string) {
	content := DeepCopy(base)
	applied := []string{}

	for _, p := range r.OverridePaths(family, slug, location) {
		fragment, found, err := r.store.Read(ctx, p)
		if err != nil {
			r.logger.Warn("Skipping location data file", "path", p, "error", err)
			continue
		}
		if !found {
			continue
		}
		content = DeepMerge(content, fragment)
		applied = append(applied, p)
	}
	return content, applied
}

// Base returns the base content of a sub-service: the slug's entry in the
// family's base file, or an empty object when there is none.
func (r *Resolver) Base(ctx context.Context, family catalog.Family, slug string) map[string]any {
	p := BasePath(family)
	doc, found, err := r.store.Read(ctx, p)
	if err != nil {
		r.logger.Warn("Skipping base content file", "path", p, "error", err)
		return map[string]any{}
	}
	if !found {
		return map[string]any{}
	}
	entry, ok := doc[slug].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return DeepCopy(entry)
}
