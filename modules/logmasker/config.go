package logmasker

import (
	"fmt"
	"regexp"
)

// MaskStrategy defines the type of masking to apply.
type MaskStrategy string

const (
	// MaskStrategyRedact replaces the value with [REDACTED].
	MaskStrategyRedact MaskStrategy = "redact"

	// MaskStrategyPartial keeps the first and last few characters.
	MaskStrategyPartial MaskStrategy = "partial"

	// MaskStrategyHash replaces the value with a short SHA-256 digest so
	// equal values can still be correlated.
	MaskStrategyHash MaskStrategy = "hash"

	// MaskStrategyNone leaves the value alone.
	MaskStrategyNone MaskStrategy = "none"
)

// FieldMaskingRule masks the value logged under a given key.
type FieldMaskingRule struct {
	FieldName     string             `json:"fieldName" yaml:"fieldName" toml:"fieldName" desc:"Field name to mask"`
	Strategy      MaskStrategy       `json:"strategy" yaml:"strategy" toml:"strategy" desc:"Masking strategy to use"`
	PartialConfig *PartialMaskConfig `json:"partialConfig,omitempty" yaml:"partialConfig,omitempty" toml:"partialConfig,omitempty" desc:"Configuration for partial masking"`
}

// PatternMaskingRule masks matches inside any string value.
type PatternMaskingRule struct {
	Pattern       string             `json:"pattern" yaml:"pattern" toml:"pattern" desc:"Regular expression pattern to match"`
	Strategy      MaskStrategy       `json:"strategy" yaml:"strategy" toml:"strategy" desc:"Masking strategy to use"`
	PartialConfig *PartialMaskConfig `json:"partialConfig,omitempty" yaml:"partialConfig,omitempty" toml:"partialConfig,omitempty" desc:"Configuration for partial masking"`

	compiled *regexp.Regexp
}

// PartialMaskConfig defines how to partially mask a value.
type PartialMaskConfig struct {
	ShowFirst int    `json:"showFirst" yaml:"showFirst" toml:"showFirst" desc:"Number of characters to show at start"`
	ShowLast  int    `json:"showLast" yaml:"showLast" toml:"showLast" desc:"Number of characters to show at end"`
	MaskChar  string `json:"maskChar" yaml:"maskChar" toml:"maskChar" desc:"Character to use for masking"`
	MinLength int    `json:"minLength" yaml:"minLength" toml:"minLength" desc:"Values shorter than this are fully masked"`
}

// LogMaskerConfig defines the configuration for the log masking module.
type LogMaskerConfig struct {
	Enabled             bool                 `json:"enabled" yaml:"enabled" toml:"enabled" env:"LOGMASKER_ENABLED" desc:"Enable log masking"`
	DefaultMaskStrategy MaskStrategy         `json:"defaultMaskStrategy" yaml:"defaultMaskStrategy" toml:"defaultMaskStrategy" env:"LOGMASKER_DEFAULT_STRATEGY" default:"redact" desc:"Strategy for rules without a valid one"`
	FieldRules          []FieldMaskingRule   `json:"fieldRules" yaml:"fieldRules" toml:"fieldRules" desc:"Field-based masking rules"`
	PatternRules        []PatternMaskingRule `json:"patternRules" yaml:"patternRules" toml:"patternRules" desc:"Pattern-based masking rules"`
}

var emailPartial = &PartialMaskConfig{ShowFirst: 2, ShowLast: 4, MaskChar: "*", MinLength: 6}

// DefaultConfig masks the personal data the contact form carries and the
// credentials outbound calls use.
func DefaultConfig() *LogMaskerConfig {
	return &LogMaskerConfig{
		Enabled:             true,
		DefaultMaskStrategy: MaskStrategyRedact,
		FieldRules: []FieldMaskingRule{
			{FieldName: "password", Strategy: MaskStrategyRedact},
			{FieldName: "secret", Strategy: MaskStrategyRedact},
			{FieldName: "apiKey", Strategy: MaskStrategyRedact},
			{FieldName: "token", Strategy: MaskStrategyRedact},
			{FieldName: "email", Strategy: MaskStrategyPartial, PartialConfig: emailPartial},
			{FieldName: "phone", Strategy: MaskStrategyPartial, PartialConfig: &PartialMaskConfig{ShowLast: 3, MaskChar: "*", MinLength: 6}},
			{FieldName: "firstName", Strategy: MaskStrategyPartial, PartialConfig: &PartialMaskConfig{ShowFirst: 1, MaskChar: "*", MinLength: 2}},
			{FieldName: "lastName", Strategy: MaskStrategyPartial, PartialConfig: &PartialMaskConfig{ShowFirst: 1, MaskChar: "*", MinLength: 2}},
			{FieldName: "ip", Strategy: MaskStrategyHash},
		},
		PatternRules: []PatternMaskingRule{
			{Pattern: `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`, Strategy: MaskStrategyPartial, PartialConfig: emailPartial},
			{Pattern: `\bre_[A-Za-z0-9_]{8,}\b`, Strategy: MaskStrategyRedact},
		},
	}
}

// Validate compiles the pattern rules and checks strategies.
func (c *LogMaskerConfig) Validate() error {
	if !validStrategy(c.DefaultMaskStrategy) {
		return fmt.Errorf("%w: unknown default strategy %q", ErrInvalidConfig, c.DefaultMaskStrategy)
	}
	for _, rule := range c.FieldRules {
		if rule.FieldName == "" {
			return fmt.Errorf("%w: field rule without a field name", ErrInvalidConfig)
		}
	}
	for i := range c.PatternRules {
		compiled, err := regexp.Compile(c.PatternRules[i].Pattern)
		if err != nil {
			return fmt.Errorf("%w: pattern %q: %w", ErrInvalidConfig, c.PatternRules[i].Pattern, err)
		}
		c.PatternRules[i].compiled = compiled
	}
	return nil
}

func validStrategy(s MaskStrategy) bool {
	switch s {
	case MaskStrategyRedact, MaskStrategyPartial, MaskStrategyHash, MaskStrategyNone:
		return true
	}
	return false
}
