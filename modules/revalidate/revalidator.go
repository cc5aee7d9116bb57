package revalidate

import (
	"context"
	"fmt"
	"time"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
)

// PageKeyPrefix is the key prefix of cached pages.
const PageKeyPrefix = "page:"

// PrefixDeleter is the part of the cache the revalidator needs.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Publisher sends invalidations to the other instances.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Result describes one revalidation.
type Result struct {
	Document Document
	Target   Target
	Prefixes []string
	Removed  int
	At       time.Time
}

// Revalidator turns document changes into cache invalidations.
type Revalidator struct {
	cache     PrefixDeleter
	publisher Publisher
	subject   sitekit.Subject
	logger    sitekit.Logger
	now       func() time.Time
}

// Option configures a Revalidator.
type Option func(*Revalidator)

func WithCache(c PrefixDeleter) Option { return func(r *Revalidator) { r.cache = c } }
func WithPublisher(p Publisher) Option { return func(r *Revalidator) { r.publisher = p } }
func WithSubject(s sitekit.Subject) Option { return func(r *Revalidator) { r.subject = s } }
func WithLogger(l sitekit.Logger) Option { return func(r *Revalidator) { r.logger = l } }
func WithClock(now func() time.Time) Option { return func(r *Revalidator) { r.now = now } }

// NewRevalidator creates a revalidator. Without a cache or publisher the
// corresponding step is skipped.
func NewRevalidator(opts ...Option) *Revalidator {
	r := &Revalidator{logger: sitekit.NopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revalidate drops the cached pages doc affects and tells the other
// instances to do the same.
func (r *Revalidator) Revalidate(ctx context.Context, doc Document) (Result, error) {
	target, known := Resolve(doc)
	if !known {
		r.logger.Warn("Unknown document type, revalidating all pages", "documentType", doc.Type)
	}
	res := Result{
		Document: doc,
		Target:   target,
		Prefixes: target.CachePrefixes(PageKeyPrefix),
		At:       r.now(),
	}

	if r.cache != nil {
		for _, prefix := range res.Prefixes {
			n, err := r.cache.DeletePrefix(ctx, prefix)
			if err != nil {
				r.fail(ctx, doc, err)
				return res, fmt.Errorf("invalidate %q: %w", prefix, err)
			}
			res.Removed += n
		}
	}

	if r.publisher != nil && len(res.Prefixes) > 0 {
		inv := cache.Invalidation{Prefixes: res.Prefixes, Source: ModuleName, Reason: doc.Type}
		if err := r.publisher.Publish(ctx, cache.TopicInvalidate, inv); err != nil {
			r.fail(ctx, doc, err)
			return res, fmt.Errorf("publish invalidation: %w", err)
		}
	}

	r.logger.Info("Revalidated", "documentType", doc.Type, "slug", doc.Slug, "paths", target.Paths, "removed", res.Removed)
	r.emit(ctx, EventTypeCompleted, map[string]any{
		"documentType": doc.Type,
		"slug":         doc.Slug,
		"paths":        target.Paths,
		"layout":       target.Layout,
		"removed":      res.Removed,
	})
	return res, nil
}

func (r *Revalidator) fail(ctx context.Context, doc Document, err error) {
	r.logger.Error("Error revalidating", "documentType", doc.Type, "error", err)
	r.emit(ctx, EventTypeFailed, map[string]any{"documentType": doc.Type, "error": err.Error()})
}

func (r *Revalidator) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, r.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, r.logger, ModuleName, eventType)
	}
}
