// Package aggregate turns resolved services into the final output shapes:
// a flat service list, services grouped under their datasets, or exploded
// layer rows with configurable ordering.
package aggregate

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/ogc"
	"github.com/geocatalogus/ngr-harvester/internal/pool"
)

// Atom services already carry a per-dataset hierarchy of their own, so the
// dataset and flat reshapings reject them explicitly instead of producing
// misleading output.
var (
	ErrAtomDatasets = errors.New("dataset output is not supported for INSPIRE Atom services")
	ErrAtomFlat     = errors.New("flat output is not supported for INSPIRE Atom services")
)

// CheckDatasetMode rejects a protocol selection that cannot be grouped by
// dataset. Called before any network traffic.
func CheckDatasetMode(protocols []model.Protocol) error {
	if lo.Contains(protocols, model.ProtocolAtom) {
		return ErrAtomDatasets
	}
	return nil
}

// CheckFlatMode rejects a protocol selection that cannot be flattened.
func CheckFlatMode(protocols []model.Protocol) error {
	if lo.Contains(protocols, model.ProtocolAtom) {
		return ErrAtomFlat
	}
	return nil
}

// Partition splits resolver results into resolved services and failures.
func Partition(results []ogc.Result) ([]model.Service, []model.ServiceError) {
	services := lo.FilterMap(results, func(r ogc.Result, _ int) (model.Service, bool) {
		return r.Service, r.Err == nil
	})
	failures := lo.FilterMap(results, func(r ogc.Result, _ int) (model.ServiceError, bool) {
		if r.Err == nil {
			return model.ServiceError{}, false
		}
		return *r.Err, true
	})
	return services, failures
}

// LogSummary reports per-protocol counts and the failing URLs.
func LogSummary(logger *zap.Logger, services []model.Service, failures []model.ServiceError) {
	logger.Info("indexed services",
		zap.Int("resolved", len(services)),
		zap.Int("failed", len(failures)))
	byProtocol := lo.CountValuesBy(services, func(s model.Service) model.Protocol {
		return s.Common().Protocol
	})
	for _, p := range model.AllProtocols() {
		if n, ok := byProtocol[p]; ok {
			logger.Info("indexed services for protocol",
				zap.String("protocol", string(p)),
				zap.Int("count", n))
		}
	}
	for _, f := range failures {
		logger.Warn("service could not be resolved",
			zap.String("url", f.URL),
			zap.String("metadata_id", f.MetadataID))
	}
}

// DatasetLookup resolves one dataset metadata record. A nil record with a
// nil error means the record does not exist.
type DatasetLookup func(ctx context.Context, id string) (*model.DatasetRecord, error)

// GroupByDataset nests services under the dataset records they operate on.
// Dataset lookups run through the worker pool. Services whose dataset record
// cannot be resolved are omitted with a warning.
func GroupByDataset(
	ctx context.Context,
	services []model.Service,
	workers int,
	lookup DatasetLookup,
	logger *zap.Logger,
) ([]model.Dataset, error) {
	for _, s := range services {
		if _, ok := s.(model.AtomService); ok {
			return nil, ErrAtomDatasets
		}
	}

	ids := lo.Uniq(lo.FilterMap(services, func(s model.Service, _ int) (string, bool) {
		id := s.Common().DatasetMetadataID
		return id, id != ""
	}))

	records := pool.Map(ctx, ids, workers, func(ctx context.Context, id string) *model.DatasetRecord {
		rec, err := lookup(ctx, id)
		if err != nil {
			logger.Warn("dataset metadata lookup failed",
				zap.String("metadata_id", id),
				zap.Error(err))
			return nil
		}
		return rec
	})

	datasets := []model.Dataset{}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		var nested []model.Service
		for _, s := range services {
			if s.Common().DatasetMetadataID == rec.MetadataID {
				nested = append(nested, withoutDatasetID(s))
			}
		}
		datasets = append(datasets, model.Dataset{
			Title:      rec.Title,
			Abstract:   rec.Abstract,
			MetadataID: rec.MetadataID,
			Services:   nested,
		})
	}

	logger.Info("grouped services by dataset",
		zap.Int("datasets", len(datasets)),
		zap.Int("dataset_ids", len(ids)))
	return datasets, nil
}

// withoutDatasetID clears the service-level dataset reference, redundant
// once the service is nested under its dataset.
func withoutDatasetID(s model.Service) model.Service {
	switch svc := s.(type) {
	case model.WMSService:
		svc.DatasetMetadataID = ""
		return svc
	case model.WFSService:
		svc.DatasetMetadataID = ""
		return svc
	case model.WCSService:
		svc.DatasetMetadataID = ""
		return svc
	case model.WMTSService:
		svc.DatasetMetadataID = ""
		return svc
	case model.OAFService:
		svc.DatasetMetadataID = ""
		return svc
	case model.OATService:
		svc.DatasetMetadataID = ""
		return svc
	default:
		return s
	}
}
