// Package httpserver serves the application's router over HTTP with
// graceful shutdown.
package httpserver

import (
	"fmt"
	"strings"
	"time"
)

// HTTPServerConfig defines the configuration for the HTTP server module.
type HTTPServerConfig struct {
	// Host is the hostname or IP address to bind to.
	Host string `json:"host" yaml:"host" toml:"host" env:"HTTP_HOST" default:"0.0.0.0" desc:"Address to bind"`

	// Port is the port number to listen on.
	Port int `json:"port" yaml:"port" toml:"port" env:"PORT" default:"8080" desc:"Port to listen on"`

	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout" toml:"readTimeout" env:"HTTP_READ_TIMEOUT" default:"15s" desc:"Maximum time to read a request"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout" toml:"writeTimeout" env:"HTTP_WRITE_TIMEOUT" default:"35s" desc:"Maximum time to write a response"`
	IdleTimeout  time.Duration `json:"idleTimeout" yaml:"idleTimeout" toml:"idleTimeout" env:"HTTP_IDLE_TIMEOUT" default:"60s" desc:"Keep-alive idle timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" toml:"shutdownTimeout" env:"HTTP_SHUTDOWN_TIMEOUT" default:"30s" desc:"Graceful shutdown timeout"`

	// HealthPath serves the aggregated module health; empty disables it.
	HealthPath    string        `json:"healthPath" yaml:"healthPath" toml:"healthPath" env:"HTTP_HEALTH_PATH" default:"/healthz" desc:"Health endpoint route"`
	HealthTimeout time.Duration `json:"healthTimeout" yaml:"healthTimeout" toml:"healthTimeout" env:"HTTP_HEALTH_TIMEOUT" default:"2s" desc:"Per-module health check timeout"`

	// TLS serves HTTPS from certificate files when both are set.
	TLS TLSConfig `json:"tls" yaml:"tls" toml:"tls"`
}

// TLSConfig holds the TLS configuration for HTTPS support
type TLSConfig struct {
	CertFile string `json:"certFile" yaml:"certFile" toml:"certFile" env:"HTTP_TLS_CERT_FILE" desc:"PEM certificate file"`
	KeyFile  string `json:"keyFile" yaml:"keyFile" toml:"keyFile" env:"HTTP_TLS_KEY_FILE" desc:"PEM private key file"`
}

// Enabled reports whether HTTPS is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != ""
}

// Validate checks the port range and TLS file pairing.
func (c *HTTPServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port number %d", ErrInvalidConfig, c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	if c.HealthPath != "" && !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("%w: health path %q must start with /", ErrInvalidConfig, c.HealthPath)
	}
	if c.TLS.Enabled() && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("%w: TLS needs both a certificate and a key file", ErrInvalidConfig)
	}
	return nil
}
