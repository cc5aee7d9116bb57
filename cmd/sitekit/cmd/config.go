package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigSampleCommand())
	return cmd
}

func newConfigSampleCommand() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample config with every module section and its defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sections, err := moduleSections(serverModules())
			if err != nil {
				return err
			}
			data, err := renderSample(sections, format)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample config written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml or json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// moduleSections collects the config sections modules register, without
// initializing them.
func moduleSections(modules []sitekit.Module) (map[string]any, error) {
	app := sitekit.NewStdApplication(nil, nil)
	for _, m := range modules {
		if c, ok := m.(sitekit.Configurable); ok {
			if err := c.RegisterConfig(app); err != nil {
				return nil, fmt.Errorf("register config for %s: %w", m.Name(), err)
			}
		}
	}
	sections := make(map[string]any, len(app.ConfigSections()))
	for name, cp := range app.ConfigSections() {
		sections[name] = cp.GetConfig()
	}
	return sections, nil
}

func renderSample(sections map[string]any, format string) ([]byte, error) {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	switch strings.ToLower(format) {
	case "yaml", "yml":
		var buf bytes.Buffer
		for i, name := range names {
			data, err := sitekit.GenerateSampleConfig(sections[name], "yaml")
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", name, err)
			}
			if i > 0 {
				buf.WriteByte('\n')
			}
			fmt.Fprintf(&buf, "%s:\n", name)
			indent(&buf, data)
		}
		return buf.Bytes(), nil
	case "json":
		doc := make(map[string]json.RawMessage, len(names))
		for _, name := range names {
			data, err := sitekit.GenerateSampleConfig(sections[name], "json")
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", name, err)
			}
			doc[name] = data
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func indent(w io.Writer, data []byte) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
