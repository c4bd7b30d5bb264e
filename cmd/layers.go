package cmd

import (
	"github.com/spf13/cobra"

	"github.com/geocatalogus/ngr-harvester/internal/aggregate"
	"github.com/geocatalogus/ngr-harvester/internal/model"
)

// newLayersCmd creates the 'layers' subcommand: every service exploded into
// one row per layer, feature type or coverage.
func newLayersCmd() *cobra.Command {
	var flags outputFlags
	var sortRulesPath string

	cmd := &cobra.Command{
		Use:   "layers [output-file]",
		Short: "Harvest services into a flat layers document",
		Long: `Queries the catalogue, resolves the capability documents and writes one
row per layer, feature type or coverage with the service fields copied
onto each row. An optional sort-rules file reorders the rows.`,
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
			if err := aggregate.CheckFlatMode(protocols); err != nil {
				return err
			}

			var rules []aggregate.SortRule
			if sortRulesPath != "" {
				rules, err = aggregate.LoadSortRules(sortRulesPath)
				if err != nil {
					return err
				}
			}

			records, err := fetchRecords(ctx, h, flags, protocols)
			if err != nil {
				return err
			}
			services, failures := resolveServices(ctx, h, records)

			rows, err := aggregate.Flatten(services)
			if err != nil {
				return err
			}
			if rules != nil {
				rows = aggregate.SortLayers(rows, rules, h.logger)
			}

			doc := map[string]any{"layers": rows}
			if err := writeOutput(ctx, h, outputTarget(args), doc, flags); err != nil {
				return err
			}
			publishSummary(ctx, h, "layers", len(services), len(failures))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sortRulesPath, "sort-rules", "", "path to a JSON sort-rules file")
	return cmd
}
