package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rules maps family -> sub-service slug -> location tokens.
type Rules map[Family]map[string][]string

// WildcardToken enables a sub-service everywhere.
const WildcardToken = "*"

// DefaultRules returns the embedded eligibility table.
func DefaultRules() (Rules, error) {
	return ParseRules(bytes.NewReader(defaultRules))
}

// ParseRules decodes a YAML eligibility table. Unknown families are rejected.
func ParseRules(r io.Reader) (Rules, error) {
	var rules Rules
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrRulesDecode, err)
	}
	for family := range rules {
		if _, ok := LookupFamily(family); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
		}
	}
	if rules == nil {
		rules = Rules{}
	}
	return rules, nil
}

// LoadRulesFile reads an eligibility table from path.
func LoadRulesFile(path string) (Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	return ParseRules(f)
}
