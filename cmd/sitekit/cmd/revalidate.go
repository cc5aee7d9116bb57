package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/revalidate"
)

type revalidateOutput struct {
	DocumentType string    `json:"documentType"`
	Slug         string    `json:"slug,omitempty"`
	Paths        []string  `json:"paths"`
	Prefixes     []string  `json:"prefixes"`
	Removed      int       `json:"removed"`
	At           time.Time `json:"at"`
}

func newRevalidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revalidate <document-type> [slug]",
		Short: "Invalidate the pages a CMS document feeds",
		Long: `Run the same invalidation as the revalidation webhook. With a shared
redis cache or the NATS event bus configured this reaches the running
instances.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := revalidate.Document{Type: args[0]}
			if len(args) == 2 {
				doc.Slug = args[1]
			}

			app, logger, err := opts.newApplication(cache.NewModule(), eventbus.NewModule(), revalidate.NewModule())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := app.Init(); err != nil {
				return err
			}
			if err := app.Start(); err != nil {
				return err
			}
			defer func() { _ = app.Stop() }()

			var rv *revalidate.Revalidator
			if err := app.GetService(revalidate.ServiceName, &rv); err != nil {
				return err
			}

			result, err := rv.Revalidate(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), revalidateOutput{
				DocumentType: result.Document.Type,
				Slug:         result.Document.Slug,
				Paths:        result.Target.Paths,
				Prefixes:     result.Prefixes,
				Removed:      result.Removed,
				At:           result.At,
			})
		},
	}
}
