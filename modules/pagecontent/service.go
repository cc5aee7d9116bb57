package pagecontent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/catalog"
)

// CacheKeyPrefix starts every cached page key; the rest is the page path.
const CacheKeyPrefix = "page:"

// Cache is the part of the cache service pages need.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Page is a resolved service page.
type Page struct {
	Family       catalog.Family   `json:"family"`
	Slug         string           `json:"slug"`
	ServiceName  string           `json:"serviceName"`
	Location     string           `json:"location,omitempty"`
	LocationName string           `json:"locationName,omitempty"`
	Breadcrumb   []string         `json:"breadcrumb,omitempty"`
	Path         string           `json:"path"`
	Metadata     catalog.Metadata `json:"metadata"`
	Content      map[string]any   `json:"content"`
	Fragments    []string         `json:"fragments"`
	ResolvedAt   time.Time        `json:"resolvedAt"`
}

// Service builds pages from the catalog, the resolver and an optional cache.
type Service struct {
	catalog     *catalog.Catalog
	resolver    *Resolver
	cache       Cache
	ttl         time.Duration
	personalize bool
	logger      sitekit.Logger
	subject     sitekit.Subject
	now         func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache caches resolved pages for ttl.
func WithCache(c Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithPersonalization toggles location injection into page copy.
func WithPersonalization(enabled bool) ServiceOption {
	return func(s *Service) { s.personalize = enabled }
}

// WithLogger sets the service logger.
func WithLogger(l sitekit.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithSubject emits page events through subject.
func WithSubject(subject sitekit.Subject) ServiceOption {
	return func(s *Service) { s.subject = subject }
}

// NewService creates a page service.
func NewService(cat *catalog.Catalog, resolver *Resolver, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:     cat,
		resolver:    resolver,
		personalize: true,
		logger:      sitekit.NopLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog pages are validated against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Page resolves the page of a sub-service at a location. location may be
// any input the normalizer accepts; the page is only built when the
// sub-service is enabled there.
func (s *Service) Page(ctx context.Context, family catalog.Family, slug, location string) (*Page, error) {
	if _, ok := catalog.LookupFamily(family); !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownFamily, family)
	}
	loc, ok := s.catalog.EnsureLocation(family, slug, location)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", catalog.ErrLocationNotEnabled, family, slug, location)
	}

	pagePath := catalog.PagePath(family, slug, loc)
	if page, ok := s.cached(ctx, pagePath); ok {
		return page, nil
	}

	start := s.now()
	base := s.resolver.Base(ctx, family, slug)
	content, applied := s.resolver.Resolve(ctx, family, slug, loc, base)

	md := s.catalog.LocationMetadata(family, slug, loc)
	if s.personalize {
		content = Personalize(content, md.LocationName)
	}

	page := &Page{
		Family:       family,
		Slug:         slug,
		ServiceName:  s.catalog.DisplayName(family, slug),
		Location:     loc,
		LocationName: md.LocationName,
		Breadcrumb:   s.catalog.Index().Path(loc),
		Path:         pagePath,
		Metadata:     md,
		Content:      content,
		Fragments:    applied,
		ResolvedAt:   start,
	}
	s.store(ctx, page)
	s.emit(ctx, EventTypePageResolved, map[string]any{
		"family":    string(family),
		"slug":      slug,
		"location":  loc,
		"path":      pagePath,
		"fragments": len(applied),
		"duration":  s.now().Sub(start).String(),
	})
	return page, nil
}

// BasePage resolves a sub-service page without a location.
func (s *Service) BasePage(ctx context.Context, family catalog.Family, slug string) (*Page, error) {
	info, ok := catalog.LookupFamily(family)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownFamily, family)
	}
	if !info.HasSlug(slug) && len(s.catalog.AllowedLocations(family, slug)) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", catalog.ErrUnknownSubService, family, slug)
	}

	pagePath := catalog.PagePath(family, slug, "")
	if page, ok := s.cached(ctx, pagePath); ok {
		return page, nil
	}

	start := s.now()
	content := s.resolver.Base(ctx, family, slug)
	name := s.catalog.DisplayName(family, slug)
	title, description := s.baseMetadata(slug, content)

	page := &Page{
		Family:      family,
		Slug:        slug,
		ServiceName: name,
		Path:        pagePath,
		Metadata:    s.catalog.BuildMetadata(title, description, pagePath),
		Content:     content,
		Fragments:   []string{},
		ResolvedAt:  start,
	}
	s.store(ctx, page)
	s.emit(ctx, EventTypePageResolved, map[string]any{
		"family": string(family),
		"slug":   slug,
		"path":   pagePath,
	})
	return page, nil
}

// baseMetadata takes the title from the hero heading and the description
// from the hero subheading or the intro heading, falling back to copy built
// from the humanized slug.
func (s *Service) baseMetadata(slug string, content map[string]any) (title, description string) {
	human := catalog.HumanizeSlug(slug)
	title = firstText(content, "hero.heading")
	if title == "" {
		title = human + " Services"
	}
	description = firstText(content, "hero.subheading", "introparagraph.heading", "introParagraph.heading")
	if description == "" {
		description = "Discover " + human + " programmes crafted by " + s.catalog.Brand() + "."
	}
	return title, description
}

// firstText returns the first non-empty string found at one of the dotted
// section.field paths.
func firstText(content map[string]any, paths ...string) string {
	for _, p := range paths {
		sectionName, field, _ := strings.Cut(p, ".")
		sec, ok := content[sectionName].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := sec[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Invalidate drops cached pages whose path starts with pathPrefix and
// returns how many were removed.
func (s *Service) Invalidate(ctx context.Context, pathPrefix string) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.DeletePrefix(ctx, CacheKeyPrefix+pathPrefix)
	if err != nil {
		return n, fmt.Errorf("invalidate %q: %w", pathPrefix, err)
	}
	s.logger.Debug("Invalidated cached pages", "prefix", pathPrefix, "removed", n)
	s.emit(ctx, EventTypePageInvalidated, map[string]any{"prefix": pathPrefix, "removed": n})
	return n, nil
}

// Evict drops the cached page at exactly pagePath.
func (s *Service) Evict(ctx context.Context, pagePath string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, CacheKeyPrefix+pagePath); err != nil {
		return fmt.Errorf("evict %q: %w", pagePath, err)
	}
	s.emit(ctx, EventTypePageInvalidated, map[string]any{"path": pagePath})
	return nil
}

// Warmup resolves every enabled location page with at most concurrency
// pages in flight. Pages that fail are logged and counted; the error is
// only non-nil when ctx is cancelled.
func (s *Service) Warmup(ctx context.Context, concurrency int) (resolved, failed int, err error) {
	if concurrency < 1 {
		concurrency = 1
	}
	var ok, bad atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, info := range catalog.Families() {
		for _, p := range s.catalog.StaticParams(info.Key) {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if _, err := s.Page(gctx, info.Key, p.Slug, p.Location); err != nil {
					s.logger.Warn("Warm-up page failed", "family", info.Key, "slug", p.Slug, "location", p.Location, "error", err)
					bad.Add(1)
					return nil
				}
				ok.Add(1)
				return nil
			})
		}
	}
	_ = g.Wait()

	resolved, failed = int(ok.Load()), int(bad.Load())
	s.emit(ctx, EventTypeWarmupCompleted, map[string]any{"resolved": resolved, "failed": failed})
	return resolved, failed, ctx.Err()
}

func (s *Service) cached(ctx context.Context, pagePath string) (*Page, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, found := s.cache.Get(ctx, CacheKeyPrefix+pagePath)
	if !found {
		return nil, false
	}
	page, err := decodePage(value)
	if err != nil {
		s.logger.Warn("Discarding unreadable cached page", "path", pagePath, "error", err)
		return nil, false
	}
	s.emit(ctx, EventTypePageCacheHit, map[string]any{"path": pagePath, "family": string(page.Family)})
	return page, true
}

func (s *Service) store(ctx context.Context, page *Page) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("Page not cacheable", "path", page.Path, "error", err)
		return
	}
	if err := s.cache.Set(ctx, CacheKeyPrefix+page.Path, json.RawMessage(data), s.ttl); err != nil {
		s.logger.Warn("Failed to cache page", "path", page.Path, "error", err)
	}
}

// decodePage accepts the raw JSON the memory engine hands back and the
// decoded object the Redis engine returns.
func decodePage(value any) (*Page, error) {
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, s.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, s.logger, ModuleName, eventType)
	}
}
