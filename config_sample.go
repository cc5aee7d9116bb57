package sitekit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// GenerateSampleConfig renders a copy of cfg with defaults applied to its
// zero fields. format is "yaml", "json" or "toml". YAML output carries each
// field's `desc` tag as a comment.
func GenerateSampleConfig(cfg any, format string) ([]byte, error) {
	temp, _, err := createTempConfig(cfg)
	if err != nil {
		return nil, err
	}
	t := reflect.TypeOf(temp).Elem()

	if err := ProcessConfigDefaults(temp); err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		var node yaml.Node
		if err := node.Encode(temp); err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		annotateYAML(&node, t)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		data, err := json.MarshalIndent(temp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		return data, nil
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(temp); err != nil {
			return nil, fmt.Errorf("failed to marshal to TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormatType, format)
	}
}

// SaveSampleConfig writes GenerateSampleConfig output to filePath.
func SaveSampleConfig(cfg any, format, filePath string) error {
	data, err := GenerateSampleConfig(cfg, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file to %s: %w", filePath, err)
	}
	return nil
}

func annotateYAML(node *yaml.Node, t reflect.Type) {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		annotateYAML(node.Content[0], t)
		return
	}
	if node.Kind != yaml.MappingNode || t.Kind() != reflect.Struct {
		return
	}

	fields := make(map[string]reflect.StructField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[name] = f
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		f, ok := fields[key.Value]
		if !ok {
			continue
		}
		if desc := f.Tag.Get(tagDesc); desc != "" {
			key.HeadComment = desc
		}
		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		annotateYAML(value, ft)
	}
}
