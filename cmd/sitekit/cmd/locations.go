package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit/modules/locations"
)

func newLocationsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Inspect the location hierarchy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newLocationsListCommand(opts),
		newLocationsShowCommand(opts),
		newLocationsNormalizeCommand(opts),
	)
	return cmd
}

func newLocationsListCommand(opts *globalOptions) *cobra.Command {
	var under string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List locations in tree order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := opts.locationIndex()
			if err != nil {
				return err
			}
			slugs := idx.All()
			if under != "" {
				slug, ok := idx.Normalize(under)
				if !ok {
					return fmt.Errorf("%w: %s", ErrUnknownLocation, under)
				}
				slugs = idx.Descendants(slug, true)
			}
			return writeLocationTable(cmd.OutOrStdout(), idx, slugs)
		},
	}
	cmd.Flags().StringVar(&under, "under", "", "only list this location and its descendants")
	return cmd
}

func writeLocationTable(out io.Writer, idx *locations.Index, slugs []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tPATH")
	for _, slug := range slugs {
		meta, ok := idx.Get(slug)
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", strings.Repeat("  ", meta.Depth), meta.Slug, meta.Name, idx.FormatPath(slug, " > "))
	}
	return tw.Flush()
}

func newLocationsShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <location>",
		Short: "Print a location's metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := opts.locationIndex()
			if err != nil {
				return err
			}
			slug, ok := idx.Normalize(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownLocation, args[0])
			}
			meta, _ := idx.Get(slug)
			return writeJSON(cmd.OutOrStdout(), meta)
		},
	}
}

func newLocationsNormalizeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <input>...",
		Short: "Map free-form location names to slugs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := opts.locationIndex()
			if err != nil {
				return err
			}
			var unknown []string
			for _, input := range args {
				slug, ok := idx.Normalize(input)
				if !ok {
					unknown = append(unknown, input)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", input, slug)
			}
			if len(unknown) > 0 {
				return fmt.Errorf("%w: %s", ErrUnknownLocation, strings.Join(unknown, ", "))
			}
			return nil
		},
	}
}

func (o *globalOptions) locationIndex() (*locations.Index, error) {
	app, logger, err := o.newApplication(locations.NewModule())
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	if err := app.Init(); err != nil {
		return nil, err
	}
	return locations.IndexFrom(app)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
