package revalidate

import (
	"fmt"
	"strings"
)

// RevalidateConfig configures the CMS webhook.
type RevalidateConfig struct {
	// Secret must match the "secret" query parameter. With no secret every
	// request is rejected.
	Secret string `json:"secret" yaml:"secret" toml:"secret" env:"SANITY_REVALIDATE_SECRET" desc:"Shared webhook secret"`

	Path         string `json:"path" yaml:"path" toml:"path" env:"REVALIDATE_PATH" default:"/api/revalidate" desc:"Webhook route"`
	MaxBodyBytes int64  `json:"maxBodyBytes" yaml:"maxBodyBytes" toml:"maxBodyBytes" env:"REVALIDATE_MAX_BODY" default:"1048576" desc:"Largest accepted payload in bytes"`
}

func (c *RevalidateConfig) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidConfig, c.Path)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: maxBodyBytes must be positive", ErrInvalidConfig)
	}
	return nil
}
