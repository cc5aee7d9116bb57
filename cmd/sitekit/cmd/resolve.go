package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/pagecontent"
)

func newResolveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <family> <slug> [location]",
		Short: "Resolve a service page and print it as JSON",
		Long: `Resolve the page of a sub-service, optionally at a location, from the
content fragments under the configured data root.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, ok := catalog.ParseFamily(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrUnknownFamily, args[0])
			}
			svc, err := opts.initContent()
			if err != nil {
				return err
			}

			var page *pagecontent.Page
			if len(args) == 3 {
				page, err = svc.Page(cmd.Context(), family, args[1], args[2])
			} else {
				page, err = svc.BasePage(cmd.Context(), family, args[1])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
}
