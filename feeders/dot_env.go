package feeders

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DotEnvFeeder reads KEY=value pairs from a .env file and fills `env`-tagged
// fields from them. The process environment is not modified.
type DotEnvFeeder struct {
	Path string
}

// NewDotEnvFeeder creates a DotEnvFeeder for filePath.
func NewDotEnvFeeder(filePath string) DotEnvFeeder {
	return DotEnvFeeder{Path: filePath}
}

// Feed populates structure from the file.
func (f DotEnvFeeder) Feed(structure any) error {
	vars, err := parseDotEnv(f.Path)
	if err != nil {
		return err
	}
	return feedEnv(structure, envName("", ""), func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
}

// FeedKey populates a section the same way as Feed.
func (f DotEnvFeeder) FeedKey(_ string, target any) error {
	return f.Feed(target)
}

func parseDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w at line %d: %s", ErrDotEnvInvalidLineFormat, lineNum, line)
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		vars[strings.TrimSpace(key)] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return vars, nil
}
