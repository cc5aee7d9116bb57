package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit/modules/catalog"
)

func newParamsCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "params <family>",
		Short: "List every enabled (sub-service, location) pair of a family",
		Long: `List the static page parameters of a service family, e.g. "seo" or
"web-development". These are the pages a static build pre-renders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, ok := catalog.ParseFamily(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrUnknownFamily, args[0])
			}
			svc, err := opts.initContent()
			if err != nil {
				return err
			}
			params := svc.Catalog().StaticParams(family)
			if asJSON {
				if params == nil {
					params = []catalog.Param{}
				}
				return writeJSON(cmd.OutOrStdout(), params)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tLOCATION\tPATH")
			for _, p := range params {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Slug, p.Location, catalog.PagePath(family, p.Slug, p.Location))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
