// Package ogc resolves catalogue service records into normalized service
// descriptions by fetching and extracting the protocol-specific capability
// document: classic OGC XML capabilities, INSPIRE Atom feeds and OGC API
// JSON landing pages.
package ogc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/fetch"
	"github.com/geocatalogus/ngr-harvester/internal/model"
)

// Result is the outcome of resolving one record: a Service or a ServiceError,
// never both, never neither.
type Result struct {
	Service model.Service
	Err     *model.ServiceError
}

// Resolver fetches capability documents and maps them into the unified
// service model.
type Resolver struct {
	getter fetch.Getter
	retry  RetryPolicy
	logger *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(getter fetch.Getter, retry RetryPolicy, logger *zap.Logger) *Resolver {
	return &Resolver{
		getter: getter,
		retry:  retry,
		logger: logger,
	}
}

// Resolve dispatches on the record's protocol tag. Failures of any kind
// demote to a ServiceError value so that batch processing continues.
func (r *Resolver) Resolve(ctx context.Context, rec model.ServiceRecord) Result {
	r.logger.Info("resolving service",
		zap.String("metadata_id", rec.MetadataID),
		zap.String("url", rec.ServiceURL))

	// Endpoints on a secure host are access restricted and not meant for
	// public viewer configs. Skipped without a network call.
	if strings.Contains(rec.ServiceURL, "://secure") {
		r.logger.Debug("skipping secured endpoint", zap.String("url", rec.ServiceURL))
		return errResult(rec)
	}

	var (
		svc model.Service
		err error
	)
	switch rec.Protocol {
	case model.ProtocolWMS:
		svc, err = r.resolveWMS(ctx, rec)
	case model.ProtocolWFS:
		svc, err = r.resolveWFS(ctx, rec)
	case model.ProtocolWCS:
		svc, err = r.resolveWCS(ctx, rec)
	case model.ProtocolWMTS:
		svc, err = r.resolveWMTS(ctx, rec)
	case model.ProtocolAtom:
		svc, err = r.resolveAtom(ctx, rec)
	case model.ProtocolOGCAPIFeatures:
		svc, err = r.resolveOAF(ctx, rec)
	case model.ProtocolOGCAPITiles:
		svc, err = r.resolveOAT(ctx, rec)
	default:
		err = fmt.Errorf("unsupported protocol %q", rec.Protocol)
	}
	if err != nil {
		r.logger.Error("failed to resolve service",
			zap.String("metadata_id", rec.MetadataID),
			zap.String("url", rec.ServiceURL),
			zap.Error(err))
		return errResult(rec)
	}
	return Result{Service: svc}
}

func errResult(rec model.ServiceRecord) Result {
	return Result{Err: &model.ServiceError{URL: rec.ServiceURL, MetadataID: rec.MetadataID}}
}

// fetchXML retrieves and parses one XML document under the retry policy.
func (r *Resolver) fetchXML(ctx context.Context, rawURL string) (*xmlquery.Node, error) {
	var doc *xmlquery.Node
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		body, err := r.getter.Get(ctx, rawURL)
		if err != nil {
			return err
		}
		parsed, err := xmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("parse %s: %w", rawURL, err)
		}
		doc = parsed
		return nil
	})
	return doc, err
}

// fetchJSON retrieves and decodes one JSON document without retries; the
// OGC API resolvers wrap their whole multi-document walk in the policy
// instead, so one stale link does not burn the budget per document.
func (r *Resolver) fetchJSON(ctx context.Context, rawURL string, target any) error {
	body, err := r.getter.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// serviceCommon fills the shared service fields, preferring the capability
// document's own title and abstract over the catalogue record's.
func serviceCommon(rec model.ServiceRecord, title, abstract string, keywords []string) model.ServiceCommon {
	if keywords == nil {
		keywords = []string{}
	}
	return model.ServiceCommon{
		Title:             title,
		Abstract:          abstract,
		MetadataID:        rec.MetadataID,
		DatasetMetadataID: rec.DatasetMetadataID,
		URL:               rec.ServiceURL,
		Keywords:          keywords,
		Protocol:          rec.Protocol,
	}
}

// mdIDFromURL extracts a metadata identifier from a metadata URL query,
// preferring uuid over id when both are present.
func mdIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	params := map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			params[strings.ToLower(k)] = vs[0]
		}
	}
	if v, ok := params["uuid"]; ok {
		return v
	}
	return params["id"]
}
