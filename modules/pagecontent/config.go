package pagecontent

import (
	"fmt"
	"os"
	"time"
)

// PageContentConfig configures page resolution.
type PageContentConfig struct {
	// DataRoot holds _base, _defaults and per-location override fragments.
	DataRoot string `json:"dataRoot" yaml:"dataRoot" toml:"dataRoot" env:"PAGES_DATA_ROOT" default:"data/locations" desc:"Root directory of content fragments"`

	// CacheTTL is how long resolved pages stay cached.
	CacheTTL time.Duration `json:"cacheTTL" yaml:"cacheTTL" toml:"cacheTTL" env:"PAGES_CACHE_TTL" default:"10m" desc:"Resolved page cache lifetime"`

	// DisablePersonalization serves location pages without the location
	// name injected into their copy.
	DisablePersonalization bool `json:"disablePersonalization" yaml:"disablePersonalization" toml:"disablePersonalization" env:"PAGES_DISABLE_PERSONALIZATION" desc:"Serve override content without injecting the location name"`

	// FragmentSchema is an optional JSON Schema file override fragments
	// must satisfy.
	FragmentSchema string `json:"fragmentSchema" yaml:"fragmentSchema" toml:"fragmentSchema" env:"PAGES_FRAGMENT_SCHEMA" desc:"JSON Schema for override fragments"`

	// WarmupSchedule is the cron spec of the cache warm-up job; empty
	// disables it.
	WarmupSchedule string `json:"warmupSchedule" yaml:"warmupSchedule" toml:"warmupSchedule" env:"PAGES_WARMUP_SCHEDULE" default:"@every 30m" desc:"Cron schedule for cache warm-up"`

	// WarmupConcurrency bounds pages resolved in parallel during warm-up.
	WarmupConcurrency int `json:"warmupConcurrency" yaml:"warmupConcurrency" toml:"warmupConcurrency" env:"PAGES_WARMUP_CONCURRENCY" default:"8" desc:"Pages resolved in parallel during warm-up"`
}

// Validate checks the data root is a directory when it exists. A missing
// root is allowed; every page then renders its base content.
func (c *PageContentConfig) Validate() error {
	if c.WarmupConcurrency < 1 {
		return fmt.Errorf("%w: warmupConcurrency must be at least 1", ErrInvalidConfig)
	}
	info, err := os.Stat(c.DataRoot)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: dataRoot %s is not a directory", ErrInvalidConfig, c.DataRoot)
	}
	return nil
}
