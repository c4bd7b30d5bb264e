package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geocatalogus/ngr-harvester/internal/output"
	"github.com/geocatalogus/ngr-harvester/internal/sink"
)

// newRecordsCmd creates the 'records' subcommand: a lightweight Dublin-Core
// listing of catalogue records, useful to inspect what a query matches
// before a full harvest.
func newRecordsCmd() *cobra.Command {
	var (
		query       string
		number      int
		pretty      bool
		yamlOut     bool
		snakeKeys   bool
		noTimestamp bool
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List catalogue records matching a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := resolveHarvester(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			cql := query
			if cql == "" {
				cql = fmt.Sprintf("type='service' AND organisationName='%s'", h.cfg.Catalog.Owner)
			}
			records, err := h.catalog.GetListRecords(ctx, cql, number)
			if err != nil {
				return err
			}

			content, contentType, err := output.Marshal(
				map[string]any{"records": records},
				output.Options{
					Pretty:        pretty,
					YAML:          yamlOut,
					SnakeKeys:     snakeKeys,
					OmitTimestamp: noTimestamp,
				})
			if err != nil {
				return err
			}
			return sink.Stdout{}.Write(ctx, "-", contentType, content)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "CQL query (default all services of the configured owner)")
	cmd.Flags().IntVarP(&number, "number", "n", 0, "cap on returned records, 0 for unbounded")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print JSON output")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "encode output as YAML")
	cmd.Flags().BoolVar(&snakeKeys, "snake-keys", false, "keep snake_case keys instead of camelCase")
	cmd.Flags().BoolVar(&noTimestamp, "no-timestamp", false, "omit the updated timestamp")
	return cmd
}
