package catalog

import (
	"fmt"
	"net/url"
)

// CatalogConfig holds site identity and the eligibility table source.
type CatalogConfig struct {
	Brand     string `json:"brand" yaml:"brand" toml:"brand" env:"SITE_BRAND" default:"Digital Neighbour" desc:"Brand appended to page titles"`
	BaseURL   string `json:"baseURL" yaml:"baseURL" toml:"baseURL" env:"SITE_URL" default:"https://digital-neighbour.com" desc:"Origin used for canonical URLs"`
	RulesFile string `json:"rulesFile" yaml:"rulesFile" toml:"rulesFile" env:"CATALOG_RULES_FILE" desc:"YAML eligibility table; empty uses the embedded rules"`
}

// Validate checks that BaseURL is an absolute URL.
func (c *CatalogConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("baseURL %q must be an absolute URL", c.BaseURL)
	}
	return nil
}
