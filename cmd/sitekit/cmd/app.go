package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
	"github.com/digitalneighbour/sitekit/logging"
	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/jsonschema"
	"github.com/digitalneighbour/sitekit/modules/locations"
	"github.com/digitalneighbour/sitekit/modules/pagecontent"
)

var (
	ErrUnsupportedConfigFile = errors.New("unsupported config file type")
	ErrUnknownLocation       = errors.New("unknown location")
	ErrUnsupportedFormat     = errors.New("unsupported output format")
)

type globalOptions struct {
	configFile string
	envPrefix  string
	logLevel   string
	logFormat  string
}

func (o *globalOptions) logger() (*logging.Logger, error) {
	return logging.New(logging.Options{Level: o.logLevel, Format: o.logFormat})
}

// feeders puts the config file first so the environment overrides it.
func (o *globalOptions) feeders() ([]sitekit.Feeder, error) {
	var out []sitekit.Feeder
	if o.configFile != "" {
		switch strings.ToLower(filepath.Ext(o.configFile)) {
		case ".yaml", ".yml":
			out = append(out, feeders.NewYamlFeeder(o.configFile))
		case ".toml":
			out = append(out, feeders.NewTomlFeeder(o.configFile))
		case ".json":
			out = append(out, feeders.NewJSONFeeder(o.configFile))
		case ".env":
			out = append(out, feeders.NewDotEnvFeeder(o.configFile))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFile, o.configFile)
		}
	}
	if o.envPrefix != "" {
		out = append(out, feeders.NewAffixedEnvFeeder(o.envPrefix, ""))
	} else {
		out = append(out, feeders.NewEnvFeeder())
	}
	return out, nil
}

func (o *globalOptions) newApplication(modules ...sitekit.Module) (*sitekit.StdApplication, *logging.Logger, error) {
	logger, err := o.logger()
	if err != nil {
		return nil, nil, err
	}
	fs, err := o.feeders()
	if err != nil {
		return nil, nil, err
	}
	app, err := sitekit.NewApplication(
		sitekit.WithLogger(logger),
		sitekit.WithConfigFeeders(fs...),
		sitekit.WithModules(modules...),
	)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}

// contentModules is the offline set: enough to build the location index,
// the catalog and the page service without serving anything.
func contentModules() []sitekit.Module {
	return []sitekit.Module{
		locations.NewModule(),
		catalog.NewModule(),
		jsonschema.NewModule(),
		pagecontent.NewModule(),
	}
}

// initContent initializes the offline modules and returns the page service.
func (o *globalOptions) initContent() (*pagecontent.Service, error) {
	app, logger, err := o.newApplication(contentModules()...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	if err := app.Init(); err != nil {
		return nil, err
	}
	return pagecontent.ServiceFrom(app)
}
