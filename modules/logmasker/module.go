// Package logmasker provides a Logger that masks personal data and
// credentials before they reach the application log. Modules handling
// form submissions log through the "logmasker.logger" service.
package logmasker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/digitalneighbour/sitekit"
)

const (
	// ServiceName is the name of the masking Logger service.
	ServiceName = "logmasker.logger"

	ModuleName = "logmasker"
)

var ErrInvalidConfig = errors.New("invalid log masker configuration")

// MaskableValue lets a value decide how it is logged.
type MaskableValue interface {
	ShouldMask() bool
	GetMaskedValue() any
}

// LogMaskerModule registers a MaskingLogger around the application logger.
type LogMaskerModule struct {
	config *LogMaskerConfig
	logger *MaskingLogger
}

// NewModule creates a new log masker module.
func NewModule() sitekit.Module {
	return &LogMaskerModule{}
}

func (m *LogMaskerModule) Name() string {
	return ModuleName
}

func (m *LogMaskerModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(DefaultConfig()))
	return nil
}

func (m *LogMaskerModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get log masker config: %w", err)
	}
	m.config = cfg.GetConfig().(*LogMaskerConfig)
	m.logger = NewMaskingLogger(app.Logger(), m.config)

	if subject, ok := app.(sitekit.Subject); ok {
		event := sitekit.NewCloudEvent(EventTypeConfigLoaded, ModuleName, map[string]any{
			"enabled":      m.config.Enabled,
			"fieldRules":   len(m.config.FieldRules),
			"patternRules": len(m.config.PatternRules),
		}, nil)
		if err := sitekit.EmitEvent(context.Background(), subject, event); err != nil {
			sitekit.HandleEventEmissionError(err, app.Logger(), ModuleName, EventTypeConfigLoaded)
		}
	}
	return nil
}

func (m *LogMaskerModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Logger that masks personal data",
		Instance:    m.logger,
	}}
}

func (m *LogMaskerModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// MaskingLogger masks key-value arguments before passing them on.
type MaskingLogger struct {
	base   sitekit.Logger
	config *LogMaskerConfig
}

var _ sitekit.Logger = (*MaskingLogger)(nil)

// NewMaskingLogger wraps base. config must have been validated so its
// patterns are compiled.
func NewMaskingLogger(base sitekit.Logger, config *LogMaskerConfig) *MaskingLogger {
	return &MaskingLogger{base: base, config: config}
}

func (l *MaskingLogger) Info(msg string, args ...any) {
	l.base.Info(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Error(msg string, args ...any) {
	l.base.Error(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Warn(msg string, args ...any) {
	l.base.Warn(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) Debug(msg string, args ...any) {
	l.base.Debug(msg, l.maskArgs(args)...)
}

func (l *MaskingLogger) maskArgs(args []any) []any {
	if !l.config.Enabled || len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)
	for i := 1; i < len(result); i += 2 {
		value := result[i]
		if maskable, ok := value.(MaskableValue); ok {
			if maskable.ShouldMask() {
				result[i] = maskable.GetMaskedValue()
			}
			continue
		}
		if key, ok := result[i-1].(string); ok {
			result[i] = l.mask(key, value)
		}
	}
	return result
}

// mask applies the first field rule for key, or else every pattern rule to
// string values.
func (l *MaskingLogger) mask(key string, value any) any {
	for _, rule := range l.config.FieldRules {
		if strings.EqualFold(rule.FieldName, key) {
			return l.apply(value, rule.Strategy, rule.PartialConfig)
		}
	}

	s, ok := value.(string)
	if !ok {
		if err, isErr := value.(error); isErr && err != nil {
			s = err.Error()
		} else {
			return value
		}
	}
	masked := s
	for _, rule := range l.config.PatternRules {
		if rule.compiled == nil {
			continue
		}
		masked = rule.compiled.ReplaceAllStringFunc(masked, func(match string) string {
			return fmt.Sprint(l.apply(match, rule.Strategy, rule.PartialConfig))
		})
	}
	if masked == s {
		return value
	}
	return masked
}

func (l *MaskingLogger) apply(value any, strategy MaskStrategy, partial *PartialMaskConfig) any {
	switch strategy {
	case MaskStrategyNone:
		return value
	case MaskStrategyPartial:
		s, ok := value.(string)
		if !ok || partial == nil {
			return "[REDACTED]"
		}
		return partialMask(s, partial)
	case MaskStrategyHash:
		sum := sha256.Sum256([]byte(fmt.Sprint(value)))
		return "[HASH:" + hex.EncodeToString(sum[:6]) + "]"
	case MaskStrategyRedact:
		return "[REDACTED]"
	default:
		if l.config.DefaultMaskStrategy != strategy && validStrategy(l.config.DefaultMaskStrategy) {
			return l.apply(value, l.config.DefaultMaskStrategy, partial)
		}
		return "[REDACTED]"
	}
}

func partialMask(value string, config *PartialMaskConfig) string {
	runes := []rune(value)
	maskChar := config.MaskChar
	if maskChar == "" {
		maskChar = "*"
	}
	if len(runes) < config.MinLength || config.ShowFirst+config.ShowLast >= len(runes) {
		return strings.Repeat(maskChar, len(runes))
	}
	first := string(runes[:config.ShowFirst])
	last := string(runes[len(runes)-config.ShowLast:])
	return first + strings.Repeat(maskChar, len(runes)-config.ShowFirst-config.ShowLast) + last
}
