package chimux

import (
	"fmt"
	"strings"
	"time"
)

// ChiMuxConfig configures CORS and request handling for the router.
//
// Example YAML configuration:
//
//	chimux:
//	  allowed_origins: ["https://digital-neighbour.com"]
//	  allow_credentials: false
//	  max_age: 600
//	  timeout: 30s
type ChiMuxConfig struct {
	// AllowedOrigins lists origins allowed to make CORS requests. "*"
	// allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" default:"[\"*\"]" desc:"List of allowed origins for CORS requests." env:"CORS_ALLOWED_ORIGINS"`

	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods" default:"[\"GET\",\"POST\",\"OPTIONS\"]" desc:"List of allowed HTTP methods." env:"CORS_ALLOWED_METHODS"`

	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers" default:"[\"Origin\",\"Accept\",\"Content-Type\",\"X-Requested-With\"]" desc:"List of allowed request headers." env:"CORS_ALLOWED_HEADERS"`

	AllowCredentials bool `yaml:"allow_credentials" json:"allow_credentials" desc:"Allow credentials in CORS requests." env:"CORS_ALLOW_CREDENTIALS"`

	// MaxAge is how long browsers may cache a preflight response, in seconds.
	MaxAge int `yaml:"max_age" json:"max_age" default:"300" desc:"Maximum age for CORS preflight cache in seconds." env:"CORS_MAX_AGE"`

	// Timeout bounds request handling; zero disables it.
	Timeout time.Duration `yaml:"timeout" json:"timeout" default:"30s" desc:"Request handling timeout." env:"HTTP_HANDLER_TIMEOUT"`

	// BasePath is stripped from request paths before routing.
	BasePath string `yaml:"basepath" json:"basepath" desc:"A base path prefix for all routes registered through this module." env:"HTTP_BASE_PATH"`
}

// Validate rejects a base path without a leading slash and negative limits.
func (c *ChiMuxConfig) Validate() error {
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("%w: basepath %q must start with /", ErrInvalidConfig, c.BasePath)
	}
	c.BasePath = strings.TrimRight(c.BasePath, "/")
	if c.MaxAge < 0 {
		return fmt.Errorf("%w: max_age must not be negative", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
