package locations

import (
	"slices"
	"strings"
)

// Get returns a copy of the metadata for slug.
func (idx *Index) Get(slug string) (Meta, bool) {
	m, ok := idx.bySlug[slug]
	if !ok {
		return Meta{}, false
	}
	return m.clone(), true
}

// Has reports whether slug is a known location.
func (idx *Index) Has(slug string) bool {
	_, ok := idx.bySlug[slug]
	return ok
}

// All returns every slug in tree order.
func (idx *Index) All() []string {
	return slices.Clone(idx.order)
}

// Roots returns the top-level slugs.
func (idx *Index) Roots() []string {
	return slices.Clone(idx.roots)
}

// Len is the number of locations.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Normalize maps user input such as "Mount Eden", "mount-eden" or
// "MOUNT EDEN" to a canonical slug. A direct slug hit wins over a name match.
func (idx *Index) Normalize(input string) (string, bool) {
	if strings.TrimSpace(input) == "" {
		return "", false
	}
	candidate := Slugify(input)
	if candidate == "" {
		return "", false
	}
	if idx.Has(candidate) {
		return candidate, true
	}
	for _, slug := range idx.order {
		if Slugify(idx.bySlug[slug].Name) == candidate {
			return slug, true
		}
	}
	return "", false
}

// Descendants lists every location below slug in tree order, optionally
// starting with slug itself. Unknown slugs yield nil.
func (idx *Index) Descendants(slug string, includeSelf bool) []string {
	m, ok := idx.bySlug[slug]
	if !ok {
		return nil
	}
	var out []string
	if includeSelf {
		out = append(out, slug)
	}
	var walk func(*Meta)
	walk = func(m *Meta) {
		for _, child := range m.Children {
			out = append(out, child)
			walk(idx.bySlug[child])
		}
	}
	walk(m)
	return out
}

// Path returns display names from the root down to slug.
func (idx *Index) Path(slug string) []string {
	m, ok := idx.bySlug[slug]
	if !ok {
		return nil
	}
	return slices.Clone(m.Path)
}

// FormatPath joins Path with sep, e.g. "North Island / Auckland / Parnell".
func (idx *Index) FormatPath(slug, sep string) string {
	return strings.Join(idx.Path(slug), sep)
}

// Region is the name of the location's parent, or "" for roots.
func (idx *Index) Region(slug string) string {
	path := idx.Path(slug)
	if len(path) > 1 {
		return path[len(path)-2]
	}
	return ""
}

// DisplayName returns the location's name.
func (idx *Index) DisplayName(slug string) (string, bool) {
	m, ok := idx.bySlug[slug]
	if !ok {
		return "", false
	}
	return m.Name, true
}

func (m *Meta) clone() Meta {
	c := *m
	c.Ancestors = slices.Clone(m.Ancestors)
	c.Children = slices.Clone(m.Children)
	c.Path = slices.Clone(m.Path)
	return c
}
