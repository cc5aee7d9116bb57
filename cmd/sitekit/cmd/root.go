// Package cmd holds the sitekit command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion renders the version line.
func PrintVersion() string {
	return fmt.Sprintf("sitekit v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// NewRootCommand creates the sitekit command and its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "sitekit",
		Short: "sitekit - backend for the agency marketing site",
		Long: `sitekit serves localized service pages, the CMS revalidation webhook and
the contact form. The other commands inspect the location tree and the
service catalog offline.`,
		Version:       PrintVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (.yaml, .yml, .toml, .json or .env)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "", "read environment variables as PREFIX_NAME instead of NAME")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "json", "log encoding (json or console)")

	cmd.AddCommand(
		newServeCommand(opts),
		newLocationsCommand(opts),
		newParamsCommand(opts),
		newResolveCommand(opts),
		newRevalidateCommand(opts),
		newConfigCommand(),
	)
	return cmd
}
