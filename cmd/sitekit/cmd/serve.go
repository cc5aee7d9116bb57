package cmd

import (
	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/contact"
	"github.com/digitalneighbour/sitekit/modules/contentwatcher"
	"github.com/digitalneighbour/sitekit/modules/database"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/eventlogger"
	"github.com/digitalneighbour/sitekit/modules/httpclient"
	"github.com/digitalneighbour/sitekit/modules/httpserver"
	"github.com/digitalneighbour/sitekit/modules/logmasker"
	"github.com/digitalneighbour/sitekit/modules/metrics"
	"github.com/digitalneighbour/sitekit/modules/revalidate"
	"github.com/digitalneighbour/sitekit/modules/scheduler"
)

// serverModules is every module the HTTP server runs with.
func serverModules() []sitekit.Module {
	return append([]sitekit.Module{
		chimux.NewChiMuxModule(),
		httpserver.NewHTTPServerModule(),
		httpclient.NewHTTPClientModule(),
		cache.NewModule(),
		eventbus.NewModule(),
		eventlogger.NewModule(),
		scheduler.NewModule(),
		database.NewModule(),
		logmasker.NewModule(),
		metrics.NewModule(),
		revalidate.NewModule(),
		contact.NewModule(),
		contentwatcher.NewModule(),
	}, contentModules()...)
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the page, revalidation and contact APIs until SIGINT or SIGTERM.
Configuration comes from --config and the environment.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			app, logger, err := opts.newApplication(serverModules()...)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return app.Run()
		},
	}
}
