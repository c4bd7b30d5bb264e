// Package catalog implements the CSW catalogue client: paginated structured
// queries, gmd metadata extraction and record filtering.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/fetch"
	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

const (
	gmdOutputSchema = "http://www.isotc211.org/2005/gmd"
	defaultPageSize = 100
)

// FilterMode selects the post-processing applied to queried records.
type FilterMode string

const (
	// FilterDefault drops empty-URL records and deduplicates by service URL.
	FilterDefault FilterMode = "filtered"
	// FilterRaw skips filtering and deduplication, a diagnostic escape hatch.
	FilterRaw FilterMode = "raw"
)

// Client queries a CSW catalogue endpoint.
type Client struct {
	baseURL string
	getter  fetch.Getter
	logger  *zap.Logger
}

// NewClient constructs a Client.
func NewClient(baseURL string, getter fetch.Getter, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		getter:  getter,
		logger:  logger,
	}
}

// GetServiceRecordsByProtocol pages through every service record of one
// protocol published by the given owner. maxResults of 0 means unbounded.
func (c *Client) GetServiceRecordsByProtocol(
	ctx context.Context,
	protocol model.Protocol,
	owner string,
	maxResults int,
	mode FilterMode,
) ([]model.ServiceRecord, error) {
	query := protocolQuery(protocol, owner)
	c.logger.Debug("catalogue query", zap.String("cql", query))
	records, err := c.getServiceRecords(ctx, query, maxResults, mode)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found service metadata records",
		zap.String("protocol", string(protocol)),
		zap.Int("count", len(records)))
	return records, nil
}

// GetServiceRecordsByProtocols queries every protocol in turn and
// concatenates the results.
func (c *Client) GetServiceRecordsByProtocols(
	ctx context.Context,
	protocols []model.Protocol,
	owner string,
	maxResults int,
	mode FilterMode,
) ([]model.ServiceRecord, error) {
	var out []model.ServiceRecord
	for _, p := range protocols {
		records, err := c.GetServiceRecordsByProtocol(ctx, p, owner, maxResults, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// GetServiceRecordsByID looks up service records by metadata identifier.
func (c *Client) GetServiceRecordsByID(ctx context.Context, id string) ([]model.ServiceRecord, error) {
	return c.getServiceRecords(ctx, fmt.Sprintf("identifier='%s'", id), 0, FilterDefault)
}

// GetDatasetMetadata resolves one dataset metadata record. A lookup miss is
// logged and yields nil, never an error that aborts the batch.
func (c *Client) GetDatasetMetadata(ctx context.Context, id string) (*model.DatasetRecord, error) {
	params := url.Values{}
	params.Set("service", "CSW")
	params.Set("version", "2.0.2")
	params.Set("request", "GetRecordById")
	params.Set("id", id)
	params.Set("elementSetName", "full")
	params.Set("outputSchema", gmdOutputSchema)

	doc, err := c.fetchDocument(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("get record by id %s: %w", id, err)
	}
	node := xmlutil.FindOne(doc, "//gmd:MD_Metadata")
	if node == nil {
		c.logger.Warn("dataset metadata record not found, a linked service may not be indexed",
			zap.String("metadata_id", id))
		return nil, nil
	}
	rec := parseDatasetRecord(node, id)
	return &rec, nil
}

// GetListRecords pages through lightweight Dublin-Core records for a query.
func (c *Client) GetListRecords(ctx context.Context, query string, maxResults int) ([]model.ListRecord, error) {
	pageSize := pageSizeFor(maxResults)
	start := 1
	var result []model.ListRecord
	for {
		doc, err := c.fetchRecordsPage(ctx, query, start, pageSize, "")
		if err != nil {
			return nil, err
		}
		sr := xmlutil.FindOne(doc, "//csw:SearchResults")
		if sr == nil {
			return nil, fmt.Errorf("catalogue response is missing SearchResults")
		}
		for _, n := range xmlutil.FindAll(doc, "//csw:Record") {
			result = append(result, parseListRecord(n))
		}
		next := intAttr(sr, "nextRecord")
		if maxResults != 0 && len(result) >= maxResults {
			break
		}
		if next == 0 {
			break
		}
		start = next
	}
	return result, nil
}

// getServiceRecords runs the full paginated query pipeline for one CQL
// expression, then filters and sorts the accumulated records.
func (c *Client) getServiceRecords(ctx context.Context, query string, maxResults int, mode FilterMode) ([]model.ServiceRecord, error) {
	pageSize := pageSizeFor(maxResults)
	start := 1
	matched := 0
	var records []model.ServiceRecord

	for {
		doc, err := c.fetchRecordsPage(ctx, query, start, pageSize, gmdOutputSchema)
		if err != nil {
			return nil, err
		}
		sr := xmlutil.FindOne(doc, "//csw:SearchResults")
		if sr == nil {
			return nil, fmt.Errorf("catalogue response is missing SearchResults")
		}
		pageMatched := intAttr(sr, "numberOfRecordsMatched")
		next := intAttr(sr, "nextRecord")

		if start == 1 {
			matched = pageMatched
			c.logger.Info("catalogue records matched before filtering", zap.Int("matches", matched))
		} else if matched != pageMatched {
			// Concurrent catalogue writes shift the match count between
			// pages; truncate rather than loop on an inconsistent result set.
			c.logger.Warn("catalogue match count changed mid-pagination, truncating",
				zap.Int("old_matches", matched),
				zap.Int("new_matches", pageMatched))
			break
		}

		for _, n := range xmlutil.FindAll(doc, "//gmd:MD_Metadata") {
			rec := parseServiceRecord(n, c.logger)
			if !rec.Protocol.Valid() {
				c.logger.Debug("skipping record with unsupported protocol",
					zap.String("metadata_id", rec.MetadataID),
					zap.String("protocol", string(rec.Protocol)))
				continue
			}
			records = append(records, rec)
		}

		// The extra next < matched guard works around a GeoNetwork bug that
		// reports a nonzero nextRecord on the final page.
		if next != 0 && next < pageMatched && (maxResults == 0 || len(records) < maxResults) {
			start = next
			continue
		}
		break
	}

	out := records
	if mode != FilterRaw {
		out = filterRecords(records)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// filterRecords drops records without a service URL and keeps one record per
// URL. Records are sorted by title descending before the last-wins pass, so
// on collision the alphabetically first title survives; observable behavior
// preserved from the original harvester rather than a deliberate rule.
func filterRecords(records []model.ServiceRecord) []model.ServiceRecord {
	sorted := append([]model.ServiceRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title > sorted[j].Title })

	byURL := map[string]model.ServiceRecord{}
	var order []string
	for _, rec := range sorted {
		if rec.ServiceURL == "" {
			continue
		}
		if _, seen := byURL[rec.ServiceURL]; !seen {
			order = append(order, rec.ServiceURL)
		}
		byURL[rec.ServiceURL] = rec
	}

	out := make([]model.ServiceRecord, 0, len(order))
	for _, u := range order {
		out = append(out, byURL[u])
	}
	return out
}

func (c *Client) fetchRecordsPage(ctx context.Context, query string, start, pageSize int, outputSchema string) (*xmlquery.Node, error) {
	params := url.Values{}
	params.Set("service", "CSW")
	params.Set("version", "2.0.2")
	params.Set("request", "GetRecords")
	params.Set("resultType", "results")
	params.Set("constraintLanguage", "CQL_TEXT")
	params.Set("constraint_language_version", "1.1.0")
	params.Set("constraint", query)
	params.Set("startPosition", strconv.Itoa(start))
	params.Set("maxRecords", strconv.Itoa(pageSize))
	params.Set("sortBy", "CreationDate:A")
	if outputSchema != "" {
		params.Set("typeNames", "gmd:MD_Metadata")
		params.Set("elementSetName", "full")
		params.Set("outputSchema", outputSchema)
	}
	return c.fetchDocument(ctx, params)
}

func (c *Client) fetchDocument(ctx context.Context, params url.Values) (*xmlquery.Node, error) {
	requestURL := c.baseURL + "?" + params.Encode()
	body, err := c.getter.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("catalogue request: %w", err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse catalogue response: %w", err)
	}
	return doc, nil
}

func protocolQuery(p model.Protocol, owner string) string {
	// NGR does not index OGC API tiles records under OnlineResourceType.
	if p == model.ProtocolOGCAPITiles {
		return fmt.Sprintf("type='service' AND organisationName='%s' AND anyText='%s'", owner, p)
	}
	return fmt.Sprintf("type='service' AND organisationName='%s' AND OnlineResourceType='%s'", owner, p)
}

func pageSizeFor(maxResults int) int {
	if maxResults > 0 && maxResults < defaultPageSize {
		return maxResults
	}
	return defaultPageSize
}

func intAttr(n *xmlquery.Node, name string) int {
	v, err := strconv.Atoi(xmlutil.AttrOf(n, name))
	if err != nil {
		return 0
	}
	return v
}
