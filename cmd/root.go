// Package cmd defines and implements the CLI commands for the ngr-harvester
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/catalog"
	"github.com/geocatalogus/ngr-harvester/internal/config"
	"github.com/geocatalogus/ngr-harvester/internal/fetch"
	"github.com/geocatalogus/ngr-harvester/internal/logging"
	"github.com/geocatalogus/ngr-harvester/internal/ogc"
)

var (
	cfgFile    string
	cswURLFlag string
	ownerFlag  string
)

// harvesterKeyType is the key for storing the harvester in the context.
type harvesterKeyType string

const harvesterKey harvesterKeyType = "harvester"

// harvester bundles the services every subcommand needs: configuration, a
// run-scoped logger, the catalogue client and the capability resolver.
type harvester struct {
	cfg      config.Config
	logger   *zap.Logger
	runID    string
	catalog  *catalog.Client
	resolver *ogc.Resolver
}

// newHarvester is the factory behind PersistentPreRunE. It is a variable so
// tests can replace it.
var newHarvester = func(_ context.Context) (*harvester, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cswURLFlag != "" {
		cfg.Catalog.URL = cswURLFlag
	}
	if ownerFlag != "" {
		cfg.Catalog.Owner = ownerFlag
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	getter := fetch.New(fetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	})
	retry := ogc.RetryPolicy{
		MaxAttempts: cfg.Harvest.RetryAttempts,
		Backoff:     cfg.RetryBackoff(),
	}
	return &harvester{
		cfg:      cfg,
		logger:   logger,
		runID:    runID,
		catalog:  catalog.NewClient(cfg.Catalog.URL, getter, logger),
		resolver: ogc.NewResolver(getter, retry, logger),
	}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ngr-harvester",
		Short: "Harvest geospatial service metadata from the Nationaal Georegister.",
		Long: `ngr-harvester queries a CSW catalogue for geospatial web services,
resolves every record into its capability document (WMS, WFS, WCS, WMTS,
INSPIRE Atom, OGC API Features, OGC API Tiles) and writes one unified
services, datasets or layers document for viewer configuration pipelines.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHarvester(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize harvester: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), harvesterKey, h))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if h, ok := cmd.Context().Value(harvesterKey).(*harvester); ok && h != nil {
				_ = h.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&cswURLFlag, "csw-url", "", "override the catalogue endpoint")
	cmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "override the organisation name filter")

	cmd.AddCommand(newServicesCmd())
	cmd.AddCommand(newLayersCmd())
	cmd.AddCommand(newRecordsCmd())

	return cmd
}

func resolveHarvester(ctx context.Context) (*harvester, error) {
	h, ok := ctx.Value(harvesterKey).(*harvester)
	if !ok || h == nil {
		return nil, errors.New("harvester services not initialized")
	}
	return h, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
