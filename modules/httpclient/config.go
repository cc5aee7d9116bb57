package httpclient

import (
	"fmt"
	"time"
)

// Config configures the shared outbound client.
type Config struct {
	MaxIdleConns        int           `json:"maxIdleConns" yaml:"maxIdleConns" toml:"maxIdleConns" env:"HTTPCLIENT_MAX_IDLE_CONNS" default:"100" desc:"Idle connections across hosts"`
	MaxIdleConnsPerHost int           `json:"maxIdleConnsPerHost" yaml:"maxIdleConnsPerHost" toml:"maxIdleConnsPerHost" env:"HTTPCLIENT_MAX_IDLE_CONNS_PER_HOST" default:"10" desc:"Idle connections per host"`
	IdleConnTimeout     time.Duration `json:"idleConnTimeout" yaml:"idleConnTimeout" toml:"idleConnTimeout" env:"HTTPCLIENT_IDLE_CONN_TIMEOUT" default:"90s" desc:"Idle connection lifetime"`

	// RequestTimeout bounds a whole request including reading the body.
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout" toml:"requestTimeout" env:"HTTPCLIENT_REQUEST_TIMEOUT" default:"10s" desc:"Per-request timeout"`
	TLSTimeout     time.Duration `json:"tlsTimeout" yaml:"tlsTimeout" toml:"tlsTimeout" env:"HTTPCLIENT_TLS_TIMEOUT" default:"5s" desc:"TLS handshake timeout"`

	// UserAgent is set on requests that carry none.
	UserAgent string `json:"userAgent" yaml:"userAgent" toml:"userAgent" env:"HTTPCLIENT_USER_AGENT" default:"sitekit/1.0" desc:"Default User-Agent"`

	// Verbose logs request and response headers. Credentials are redacted.
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" env:"HTTPCLIENT_VERBOSE" desc:"Log outbound request headers"`
}

func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("%w: idle connection limits must not be negative", ErrInvalidConfig)
	}
	return nil
}
