package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/digitalneighbour/sitekit/modules/locations"
)

// Param is one enabled (sub-service, location) pair.
type Param struct {
	Slug     string `json:"slug"`
	Location string `json:"location"`
}

// OpenGraph mirrors the Open Graph tags of a page.
type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
}

// Metadata is the SEO head data of a page.
type Metadata struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LocationName string    `json:"locationName,omitempty"`
	Region       string    `json:"region,omitempty"`
	Canonical    string    `json:"canonical"`
	OpenGraph    OpenGraph `json:"openGraph"`
}

// Catalog answers which service pages exist for which locations. The
// eligibility table is expanded once at construction, so lookups are
// read-only and safe for concurrent use.
type Catalog struct {
	index   *locations.Index
	brand   string
	baseURL string

	allowed map[Family]map[string][]string
	lookup  map[Family]map[string]map[string]struct{}
}

// New expands rules against index.
func New(index *locations.Index, rules Rules, brand, baseURL string) *Catalog {
	c := &Catalog{
		index:   index,
		brand:   brand,
		baseURL: strings.TrimRight(baseURL, "/"),
		allowed: make(map[Family]map[string][]string),
		lookup:  make(map[Family]map[string]map[string]struct{}),
	}
	for family, subServices := range rules {
		c.allowed[family] = make(map[string][]string, len(subServices))
		c.lookup[family] = make(map[string]map[string]struct{}, len(subServices))
		for slug, tokens := range subServices {
			expanded := c.expand(tokens)
			set := make(map[string]struct{}, len(expanded))
			for _, loc := range expanded {
				set[loc] = struct{}{}
			}
			c.allowed[family][slug] = expanded
			c.lookup[family][slug] = set
		}
	}
	return c
}

// expand turns tokens into location slugs, first occurrence wins.
// Tokens that are not known locations are kept as written.
func (c *Catalog) expand(tokens []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(slugs ...string) {
		for _, s := range slugs {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, token := range tokens {
		switch {
		case token == WildcardToken:
			add(c.index.All()...)
		case c.index.Has(token):
			add(c.index.Descendants(token, true)...)
		default:
			add(token)
		}
	}
	return out
}

// Index returns the location index the catalog was built on.
func (c *Catalog) Index() *locations.Index {
	return c.index
}

// Brand is the site name appended to titles.
func (c *Catalog) Brand() string {
	return c.brand
}

// AllowedLocations lists the locations a sub-service is enabled for.
func (c *Catalog) AllowedLocations(family Family, slug string) []string {
	return slices.Clone(c.allowed[family][slug])
}

// IsEnabled reports whether a location page exists for the triple.
func (c *Catalog) IsEnabled(family Family, slug, location string) bool {
	_, ok := c.lookup[family][slug][location]
	return ok
}

// EnabledSubServices lists the family's sub-services that have at least one
// location, in label order followed by any extra rule slugs.
func (c *Catalog) EnabledSubServices(family Family) []string {
	var out []string
	for _, slug := range c.ruleSlugs(family) {
		if len(c.allowed[family][slug]) > 0 {
			out = append(out, slug)
		}
	}
	return out
}

// LocationsForFamily is the union of known locations across the family's
// sub-services.
func (c *Catalog) LocationsForFamily(family Family) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, slug := range c.ruleSlugs(family) {
		for _, loc := range c.allowed[family][slug] {
			if _, dup := seen[loc]; dup || !c.index.Has(loc) {
				continue
			}
			seen[loc] = struct{}{}
			out = append(out, loc)
		}
	}
	return out
}

// EnsureLocation normalizes input and returns the slug only when the
// sub-service is enabled there.
func (c *Catalog) EnsureLocation(family Family, slug, input string) (string, bool) {
	location, ok := c.index.Normalize(input)
	if !ok || !c.IsEnabled(family, slug, location) {
		return "", false
	}
	return location, true
}

// StaticParams enumerates every enabled (sub-service, location) pair.
func (c *Catalog) StaticParams(family Family) []Param {
	var params []Param
	for _, slug := range c.ruleSlugs(family) {
		for _, loc := range c.allowed[family][slug] {
			params = append(params, Param{Slug: slug, Location: loc})
		}
	}
	return params
}

func (c *Catalog) ruleSlugs(family Family) []string {
	subServices := c.allowed[family]
	if len(subServices) == 0 {
		return nil
	}
	var ordered []string
	if info, ok := LookupFamily(family); ok {
		for _, slug := range info.Slugs {
			if _, ok := subServices[slug]; ok {
				ordered = append(ordered, slug)
			}
		}
	}
	var extra []string
	for slug := range subServices {
		if !slices.Contains(ordered, slug) {
			extra = append(extra, slug)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}

// DisplayName is the sub-service label, or the slug title-cased.
func (c *Catalog) DisplayName(family Family, slug string) string {
	info, ok := LookupFamily(family)
	if !ok {
		return slug
	}
	if label, ok := info.SlugLabel(slug); ok {
		return label
	}
	return titleWords(slug)
}

// LocationMetadata builds the head data of a localized page. Unknown
// locations fall back to the raw slug as the name.
func (c *Catalog) LocationMetadata(family Family, slug, location string) Metadata {
	service := c.DisplayName(family, slug)
	locationName := location
	if name, ok := c.index.DisplayName(location); ok {
		locationName = name
	}
	region := c.index.Region(location)

	regionSuffix := ""
	if region != "" {
		regionSuffix = ", " + region
	}

	var description string
	if info, ok := LookupFamily(family); ok {
		description = strings.NewReplacer(
			"{service}", service,
			"{serviceLower}", strings.ToLower(service),
			"{location}", locationName,
			"{region}", regionSuffix,
			"{brand}", c.brand,
		).Replace(info.description)
	}

	md := c.BuildMetadata(service+" in "+locationName+" | "+c.brand, description, PagePath(family, slug, location))
	md.LocationName = locationName
	md.Region = region
	return md
}

// BuildMetadata appends the brand to title when missing and derives the
// canonical URL and Open Graph tags from path.
func (c *Catalog) BuildMetadata(title, description, path string) Metadata {
	if c.brand != "" && !strings.Contains(title, c.brand) {
		title = title + " | " + c.brand
	}
	canonical := c.baseURL + path
	return Metadata{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OpenGraph: OpenGraph{
			Title:       title,
			Description: description,
			Type:        "website",
			URL:         canonical,
		},
	}
}

// RewriteShortPath resolves "/<base>/<segment>" URLs. A segment naming a
// sub-service is returned as is; otherwise a segment that normalizes to a
// location maps to the family's default sub-service at that location.
func (c *Catalog) RewriteShortPath(family Family, segment string) (slug, location string, ok bool) {
	info, found := LookupFamily(family)
	if !found {
		return "", "", false
	}
	if info.HasSlug(segment) {
		return segment, "", true
	}
	location, ok = c.index.Normalize(segment)
	if !ok {
		return "", "", false
	}
	return info.DefaultSlug, location, true
}

// PagePath is the public URL path of a page; location may be empty.
func PagePath(family Family, slug, location string) string {
	info, ok := LookupFamily(family)
	base := "/" + string(family)
	if ok {
		base = info.BasePath
	}
	path := base + "/" + slug
	if location != "" {
		path += "/" + location
	}
	return path
}
