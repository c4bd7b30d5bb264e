package cmd

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/aggregate"
	"github.com/geocatalogus/ngr-harvester/internal/catalog"
	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/ogc"
	"github.com/geocatalogus/ngr-harvester/internal/output"
	"github.com/geocatalogus/ngr-harvester/internal/pool"
	"github.com/geocatalogus/ngr-harvester/internal/publish"
	"github.com/geocatalogus/ngr-harvester/internal/sink"
)

// outputFlags are the flags shared by the harvesting subcommands.
type outputFlags struct {
	protocols   string
	number      int
	pretty      bool
	yamlOut     bool
	snakeKeys   bool
	noTimestamp bool
	raw         bool
	id          string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.protocols, "protocols", "p", "", "comma separated protocols to harvest (default all)")
	cmd.Flags().IntVarP(&f.number, "number", "n", 0, "cap on records per protocol, 0 for unbounded")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "pretty-print JSON output")
	cmd.Flags().BoolVar(&f.yamlOut, "yaml", false, "encode output as YAML")
	cmd.Flags().BoolVar(&f.snakeKeys, "snake-keys", false, "keep snake_case keys instead of camelCase")
	cmd.Flags().BoolVar(&f.noTimestamp, "no-timestamp", false, "omit the updated timestamp")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "skip record filtering and deduplication")
	cmd.Flags().StringVar(&f.id, "id", "", "harvest a single record by metadata identifier")
}

func (f outputFlags) filterMode() catalog.FilterMode {
	if f.raw {
		return catalog.FilterRaw
	}
	return catalog.FilterDefault
}

func (f outputFlags) marshalOptions() output.Options {
	return output.Options{
		Pretty:        f.pretty,
		YAML:          f.yamlOut,
		SnakeKeys:     f.snakeKeys,
		OmitTimestamp: f.noTimestamp,
	}
}

// outputTarget interprets the positional argument: "-" (or nothing) means
// stdout.
func outputTarget(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// fetchRecords queries the catalogue per the shared flags: either one record
// by identifier or everything matching the protocol selection.
func fetchRecords(ctx context.Context, h *harvester, f outputFlags, protocols []model.Protocol) ([]model.ServiceRecord, error) {
	if f.id != "" {
		return h.catalog.GetServiceRecordsByID(ctx, f.id)
	}
	return h.catalog.GetServiceRecordsByProtocols(ctx, protocols, h.cfg.Catalog.Owner, f.number, f.filterMode())
}

// resolveServices fans the records out through the worker pool and logs the
// run summary.
func resolveServices(ctx context.Context, h *harvester, records []model.ServiceRecord) ([]model.Service, []model.ServiceError) {
	results := pool.Map(ctx, records, h.cfg.Harvest.Concurrency, func(ctx context.Context, rec model.ServiceRecord) ogc.Result {
		return h.resolver.Resolve(ctx, rec)
	})
	services, failures := aggregate.Partition(results)
	aggregate.LogSummary(h.logger, services, failures)
	return services, failures
}

// writeOutput encodes the document and stores it: stdout for "-", the
// configured GCS bucket when one is set, the local filesystem otherwise.
func writeOutput(ctx context.Context, h *harvester, name string, doc map[string]any, f outputFlags) error {
	content, contentType, err := output.Marshal(doc, f.marshalOptions())
	if err != nil {
		return err
	}

	if name == "-" {
		return sink.Stdout{}.Write(ctx, name, contentType, content)
	}
	if bucket := h.cfg.Storage.GCSBucket; bucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		defer client.Close()
		gcs, err := sink.NewGCS(client, bucket)
		if err != nil {
			return err
		}
		h.logger.Info("writing result to object storage",
			zap.String("bucket", bucket),
			zap.String("object", name))
		return gcs.Write(ctx, name, contentType, content)
	}
	h.logger.Info("writing result to local file system", zap.String("file", name))
	return sink.File{}.Write(ctx, name, contentType, content)
}

// publishSummary emits the run summary when a Pub/Sub topic is configured.
// A publish failure is logged, not fatal: the harvest result is already
// written.
func publishSummary(ctx context.Context, h *harvester, mode string, services, failures int) {
	if h.cfg.PubSub.TopicName == "" {
		return
	}
	client, err := pubsub.NewClient(ctx, h.cfg.PubSub.ProjectID)
	if err != nil {
		h.logger.Warn("failed to create pubsub client", zap.Error(err))
		return
	}
	defer client.Close()

	summary := publish.RunSummary{
		RunID:    h.runID,
		Mode:     mode,
		Services: services,
		Failures: failures,
		Updated:  time.Now().Format(time.RFC3339),
	}
	id, err := publish.New(client.Topic(h.cfg.PubSub.TopicName)).Publish(ctx, summary)
	if err != nil {
		h.logger.Warn("failed to publish run summary", zap.Error(err))
		return
	}
	h.logger.Info("published run summary", zap.String("message_id", id))
}
