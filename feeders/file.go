package feeders

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/golobby/config/v3/pkg/feeder"
	"gopkg.in/yaml.v3"
)

type structFeeder interface {
	Feed(target any) error
}

// feedKey reads the whole document into a map, then round-trips the value
// under key through the document's codec into target. A missing key is not
// an error.
func feedKey(
	f structFeeder,
	key string,
	target any,
	marshal func(any) ([]byte, error),
	unmarshal func([]byte, any) error,
	fileType string,
) error {
	var all map[string]any
	if err := f.Feed(&all); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	value, ok := all[key]
	if !ok {
		return nil
	}

	data, err := marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}
	if err := unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}
	return nil
}

// YamlFeeder reads YAML files.
type YamlFeeder struct {
	feeder.Yaml
}

// NewYamlFeeder creates a YamlFeeder for filePath.
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{feeder.Yaml{Path: filePath}}
}

// FeedKey fills target from the top-level key of the YAML file.
func (y YamlFeeder) FeedKey(key string, target any) error {
	return feedKey(y.Yaml, key, target, yaml.Marshal, yaml.Unmarshal, "YAML")
}

// TomlFeeder reads TOML files.
type TomlFeeder struct {
	feeder.Toml
}

// NewTomlFeeder creates a TomlFeeder for filePath.
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{feeder.Toml{Path: filePath}}
}

// FeedKey fills target from the top-level table named key.
func (t TomlFeeder) FeedKey(key string, target any) error {
	return feedKey(t.Toml, key, target, toml.Marshal, toml.Unmarshal, "TOML")
}

// JSONFeeder reads JSON files.
type JSONFeeder struct {
	feeder.Json
}

// NewJSONFeeder creates a JSONFeeder for filePath.
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{feeder.Json{Path: filePath}}
}

// FeedKey fills target from the top-level key of the JSON file.
func (j JSONFeeder) FeedKey(key string, target any) error {
	return feedKey(j.Json, key, target, json.Marshal, json.Unmarshal, "JSON")
}
