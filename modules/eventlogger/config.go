package eventlogger

import (
	"fmt"
	"strings"
	"time"
)

// Levels, lowest first.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelRank = map[string]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}

// EventLoggerConfig configures which events are logged and where.
type EventLoggerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled" env:"EVENTLOGGER_ENABLED" desc:"Enable event logging"`

	// LogLevel is the minimum level an event must map to.
	LogLevel string `json:"logLevel" yaml:"logLevel" toml:"logLevel" env:"EVENTLOGGER_LEVEL" default:"INFO" desc:"Minimum level for logged events"`

	// EventTypeFilters are type prefixes; empty logs every event.
	EventTypeFilters []string `json:"eventTypeFilters" yaml:"eventTypeFilters" toml:"eventTypeFilters" env:"EVENTLOGGER_FILTERS" desc:"Event type prefixes to log"`

	BufferSize    int           `json:"bufferSize" yaml:"bufferSize" toml:"bufferSize" env:"EVENTLOGGER_BUFFER_SIZE" default:"256" desc:"Events buffered before dropping"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flushInterval" toml:"flushInterval" env:"EVENTLOGGER_FLUSH_INTERVAL" default:"5s" desc:"How often file output is flushed"`

	// IncludeData logs the event payload alongside type and source.
	IncludeData bool `json:"includeData" yaml:"includeData" toml:"includeData" env:"EVENTLOGGER_INCLUDE_DATA" desc:"Log event payloads"`

	// FilePath additionally appends events as JSON lines to a file.
	FilePath string `json:"filePath" yaml:"filePath" toml:"filePath" env:"EVENTLOGGER_FILE" desc:"JSON lines audit file"`
}

func (c *EventLoggerConfig) Validate() error {
	c.LogLevel = strings.ToUpper(c.LogLevel)
	if _, ok := levelRank[c.LogLevel]; !ok {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrInvalidLogLevel, c.LogLevel)
	}
	if c.BufferSize < 1 || c.FlushInterval <= 0 {
		return fmt.Errorf("%w: buffer size and flush interval must be positive", ErrInvalidConfig)
	}
	return nil
}
