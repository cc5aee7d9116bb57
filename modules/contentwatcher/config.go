package contentwatcher

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ContentWatcherConfig configures the fragment file watcher.
type ContentWatcherConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled" toml:"enabled" env:"CONTENT_WATCH_ENABLED" desc:"Watch fragment files for changes"`
	Root     string        `json:"root" yaml:"root" toml:"root" env:"CONTENT_WATCH_ROOT" default:"data/locations" desc:"Directory to watch, normally the page data root"`
	Debounce time.Duration `json:"debounce" yaml:"debounce" toml:"debounce" env:"CONTENT_WATCH_DEBOUNCE" default:"250ms" desc:"Quiet period before changes are applied"`

	// Include and Exclude are comma separated doublestar patterns matched
	// against slash paths relative to Root.
	Include string `json:"include" yaml:"include" toml:"include" env:"CONTENT_WATCH_INCLUDE" default:"**/*.json" desc:"Files that trigger invalidation"`
	Exclude string `json:"exclude" yaml:"exclude" toml:"exclude" env:"CONTENT_WATCH_EXCLUDE" default:"**/.*" desc:"Files that never trigger invalidation"`
}

func (c *ContentWatcherConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", ErrInvalidConfig)
	}
	for _, p := range append(c.IncludePatterns(), c.ExcludePatterns()...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad pattern %q", ErrInvalidConfig, p)
		}
	}
	if len(c.IncludePatterns()) == 0 {
		return fmt.Errorf("%w: at least one include pattern is required", ErrInvalidConfig)
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("%w: root: %w", ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %s is not a directory", ErrInvalidConfig, c.Root)
	}
	return nil
}

func (c *ContentWatcherConfig) IncludePatterns() []string {
	return splitPatterns(c.Include)
}

func (c *ContentWatcherConfig) ExcludePatterns() []string {
	return splitPatterns(c.Exclude)
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
