package cmd

import (
	"github.com/spf13/cobra"

	"github.com/geocatalogus/ngr-harvester/internal/aggregate"
	"github.com/geocatalogus/ngr-harvester/internal/model"
)

// newServicesCmd creates the 'services' subcommand: a flat services document
// or, with --dataset-md, services nested under their datasets.
func newServicesCmd() *cobra.Command {
	var flags outputFlags
	var datasetMD bool

	cmd := &cobra.Command{
		Use:   "services [output-file]",
		Short: "Harvest services into a services or datasets document",
		Long: `Queries the catalogue for service metadata records, resolves every
record into its capability document and writes the normalized services.
With --dataset-md the services are grouped under the dataset metadata
records they operate on. Output goes to stdout when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := resolveHarvester(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			protocols, err := model.ParseProtocols(flags.protocols)
			if err != nil {
				return err
			}
			// Fail before any network traffic when the mode cannot work.
			if datasetMD {
				if err := aggregate.CheckDatasetMode(protocols); err != nil {
					return err
				}
			}

			records, err := fetchRecords(ctx, h, flags, protocols)
			if err != nil {
				return err
			}
			services, failures := resolveServices(ctx, h, records)

			mode := "services"
			var doc map[string]any
			if datasetMD {
				mode = "datasets"
				datasets, err := aggregate.GroupByDataset(ctx, services,
					h.cfg.Harvest.Concurrency, h.catalog.GetDatasetMetadata, h.logger)
				if err != nil {
					return err
				}
				doc = map[string]any{"datasets": datasets}
			} else {
				doc = map[string]any{"services": services}
			}

			if err := writeOutput(ctx, h, outputTarget(args), doc, flags); err != nil {
				return err
			}
			publishSummary(ctx, h, mode, len(services), len(failures))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&datasetMD, "dataset-md", false, "group services under their dataset metadata records")
	return cmd
}
