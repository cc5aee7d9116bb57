package sitekit

import (
	"fmt"
	"reflect"

	"github.com/golobby/config/v3"
)

const mainConfigSection = "_main"

// LoadAppConfigFunc is the function type for loading application configuration
type LoadAppConfigFunc func(*StdApplication) error

// AppConfigLoader is the default implementation that can be replaced in tests
var AppConfigLoader LoadAppConfigFunc = loadAppConfig

// ConfigProvider defines the interface for providing configuration objects
type ConfigProvider interface {
	// GetConfig returns the configuration object
	GetConfig() any
}

// StdConfigProvider provides a standard implementation of ConfigProvider
type StdConfigProvider struct {
	cfg any
}

// GetConfig returns the configuration object
func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// NewStdConfigProvider creates a new standard configuration provider
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// Config combines golobby feeders with keyed section structs. The main
// struct is fed by every feeder; sections are fed only by ComplexFeeders,
// which know how to extract a single key.
type Config struct {
	*config.Config
	StructKeys map[string]any
}

// NewConfig creates a new configuration builder
func NewConfig() *Config {
	return &Config{
		Config:     config.New(),
		StructKeys: make(map[string]any),
	}
}

// AddStructKey adds a section struct under key
func (c *Config) AddStructKey(key string, target any) *Config {
	c.StructKeys[key] = target
	return c
}

// Feed runs every feeder, then applies defaults, validation and Setup to
// each section.
func (c *Config) Feed() error {
	if err := c.Config.Feed(); err != nil {
		return fmt.Errorf("config feed error: %w", err)
	}

	for key, target := range c.StructKeys {
		for _, f := range c.Feeders {
			cf, ok := f.(ComplexFeeder)
			if !ok {
				continue
			}
			if err := cf.FeedKey(key, target); err != nil {
				return fmt.Errorf("%w: section %s: %w", ErrConfigFeederError, key, err)
			}
		}

		if err := ValidateConfig(target); err != nil {
			return fmt.Errorf("config validation error for %s: %w", key, err)
		}

		if setupable, ok := target.(ConfigSetup); ok {
			if err := setupable.Setup(); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrConfigSetupError, key, err)
			}
		}
	}

	return nil
}

// ConfigSetup is implemented by configs that derive values after feeding.
type ConfigSetup interface {
	Setup() error
}

func loadAppConfig(app *StdApplication) error {
	if app == nil {
		return ErrApplicationNil
	}

	feeders := app.cfgFeeders
	if feeders == nil {
		feeders = ConfigFeeders
	}

	cfgBuilder := NewConfig()
	for _, feeder := range feeders {
		cfgBuilder.AddFeeder(feeder)
	}

	tempConfigs := make(map[string]configInfo)

	if app.cfgProvider != nil && app.cfgProvider.GetConfig() != nil {
		temp, info, err := createTempConfig(app.cfgProvider.GetConfig())
		if err != nil {
			app.logger.Warn("Failed to create temp config, skipping main config", "error", err)
		} else {
			cfgBuilder.AddStruct(temp)
			tempConfigs[mainConfigSection] = info
		}
	}

	for sectionKey, provider := range app.cfgSections {
		if provider == nil || provider.GetConfig() == nil {
			app.logger.Warn("Skipping section with nil config", "section", sectionKey)
			continue
		}

		temp, info, err := createTempConfig(provider.GetConfig())
		if err != nil {
			app.logger.Warn("Failed to create temp config for section, skipping", "section", sectionKey, "error", err)
			continue
		}

		cfgBuilder.AddStructKey(sectionKey, temp)
		tempConfigs[sectionKey] = info
		app.logger.Debug("Added section config for loading", "section", sectionKey, "type", reflect.TypeOf(provider.GetConfig()))
	}

	if len(tempConfigs) == 0 {
		app.logger.Debug("No configs registered, skipping config loading")
		return nil
	}

	if err := cfgBuilder.Feed(); err != nil {
		return err
	}
	if info, ok := tempConfigs[mainConfigSection]; ok {
		if err := ValidateConfig(info.tempVal.Interface()); err != nil {
			return fmt.Errorf("config validation error for main config: %w", err)
		}
	}

	for sectionKey, info := range tempConfigs {
		if sectionKey == mainConfigSection {
			if info.isPtr {
				info.originalVal.Elem().Set(info.tempVal.Elem())
			} else {
				app.cfgProvider = NewStdConfigProvider(info.tempVal.Elem().Interface())
			}
			continue
		}
		if info.isPtr {
			info.originalVal.Elem().Set(info.tempVal.Elem())
		} else {
			app.cfgSections[sectionKey] = NewStdConfigProvider(info.tempVal.Elem().Interface())
		}
	}

	return nil
}

type configInfo struct {
	originalVal reflect.Value
	tempVal     reflect.Value
	isPtr       bool
}

// createTempConfig copies cfg into a fresh value so a failed feed leaves the
// registered config untouched. Values set at registration survive feeding.
func createTempConfig(cfg any) (any, configInfo, error) {
	if cfg == nil {
		return nil, configInfo{}, ErrConfigNil
	}

	cfgValue := reflect.ValueOf(cfg)
	isPtr := cfgValue.Kind() == reflect.Ptr

	var source reflect.Value
	if isPtr {
		if cfgValue.IsNil() {
			return nil, configInfo{}, ErrConfigNilPointer
		}
		source = cfgValue.Elem()
	} else {
		source = cfgValue
	}
	if source.Kind() != reflect.Struct {
		return nil, configInfo{}, ErrConfigNotStruct
	}

	tempCfgValue := reflect.New(source.Type())
	tempCfgValue.Elem().Set(source)

	return tempCfgValue.Interface(), configInfo{
		originalVal: cfgValue,
		tempVal:     tempCfgValue,
		isPtr:       isPtr,
	}, nil
}
