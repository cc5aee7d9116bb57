package metrics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidConfig is returned for an unusable metrics configuration.
var ErrInvalidConfig = errors.New("invalid metrics configuration")

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig configures the registry and the scrape endpoint.
//
//	metrics:
//	  namespace: sitekit
//	  path: /metrics
type MetricsConfig struct {
	// Enabled mounts the scrape endpoint and the request middleware.
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled" env:"METRICS_ENABLED" desc:"Expose Prometheus metrics"`

	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace" env:"METRICS_NAMESPACE" default:"sitekit" desc:"Metric name prefix"`
	Path      string `json:"path" yaml:"path" toml:"path" env:"METRICS_PATH" default:"/metrics" desc:"Scrape endpoint path"`

	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool `json:"runtimeCollectors" yaml:"runtimeCollectors" toml:"runtimeCollectors" env:"METRICS_RUNTIME" desc:"Include Go runtime and process metrics"`
}

func (c *MetricsConfig) Validate() error {
	if !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("%w: namespace %q", ErrInvalidConfig, c.Namespace)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidConfig, c.Path)
	}
	return nil
}
