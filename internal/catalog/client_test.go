package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/fetch"
	"github.com/geocatalogus/ngr-harvester/internal/model"
)

type cswRecord struct {
	id       string
	title    string
	url      string
	protocol string
}

func serviceRecordXML(r cswRecord) string {
	return fmt.Sprintf(`<gmd:MD_Metadata>
  <gmd:fileIdentifier><gco:CharacterString>%s</gco:CharacterString></gmd:fileIdentifier>
  <gmd:identificationInfo>
    <srv:SV_ServiceIdentification>
      <gmd:citation><gmd:CI_Citation>
        <gmd:title><gco:CharacterString>%s</gco:CharacterString></gmd:title>
      </gmd:CI_Citation></gmd:citation>
    </srv:SV_ServiceIdentification>
  </gmd:identificationInfo>
  <gmd:distributionInfo><gmd:MD_Distribution><gmd:transferOptions>
    <gmd:MD_DigitalTransferOptions><gmd:onLine><gmd:CI_OnlineResource>
      <gmd:linkage><gmd:URL>%s</gmd:URL></gmd:linkage>
      <gmd:protocol><gco:CharacterString>%s</gco:CharacterString></gmd:protocol>
    </gmd:CI_OnlineResource></gmd:onLine></gmd:MD_DigitalTransferOptions>
  </gmd:transferOptions></gmd:MD_Distribution></gmd:distributionInfo>
</gmd:MD_Metadata>`, r.id, r.title, r.url, r.protocol)
}

func getRecordsResponse(matched, next int, records []cswRecord) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<csw:GetRecordsResponse xmlns:csw="http://www.opengis.net/cat/csw/2.0.2"
                        xmlns:gmd="http://www.isotc211.org/2005/gmd"
                        xmlns:gco="http://www.isotc211.org/2005/gco"
                        xmlns:srv="http://www.isotc211.org/2005/srv">`)
	fmt.Fprintf(&sb, `<csw:SearchResults numberOfRecordsMatched="%d" numberOfRecordsReturned="%d" nextRecord="%d">`,
		matched, len(records), next)
	for _, r := range records {
		sb.WriteString(serviceRecordXML(r))
	}
	sb.WriteString(`</csw:SearchResults></csw:GetRecordsResponse>`)
	return sb.String()
}

// newCSWServer serves GetRecords pages over the given record set, honoring
// startPosition and maxRecords. matchedFor lets a test fake mid-pagination
// catalogue writes.
func newCSWServer(t *testing.T, records []cswRecord, matchedFor func(start int) int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "GetRecords", q.Get("request"))
		require.NotEmpty(t, q.Get("constraint"))

		start, err := strconv.Atoi(q.Get("startPosition"))
		require.NoError(t, err)
		size, err := strconv.Atoi(q.Get("maxRecords"))
		require.NoError(t, err)

		matched := len(records)
		if matchedFor != nil {
			matched = matchedFor(start)
		}

		end := start - 1 + size
		if end > len(records) {
			end = len(records)
		}
		next := end + 1
		if next > len(records) {
			next = 0
		}
		_, _ = w.Write([]byte(getRecordsResponse(matched, next, records[start-1:end])))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, fetch.New(fetch.Config{}), zap.NewNop())
}

func TestGetServiceRecordsPaginates(t *testing.T) {
	t.Parallel()

	records := make([]cswRecord, 250)
	for i := range records {
		records[i] = cswRecord{
			id:       fmt.Sprintf("id-%03d", i),
			title:    fmt.Sprintf("Service %03d", i),
			url:      fmt.Sprintf("https://example.test/wms/%03d", i),
			protocol: "OGC:WMS",
		}
	}
	srv := newCSWServer(t, records, nil)

	got, err := newTestClient(srv.URL).GetServiceRecordsByProtocol(
		context.Background(), model.ProtocolWMS, "Beheer PDOK", 0, FilterDefault)
	require.NoError(t, err)
	require.Len(t, got, 250)

	// Title-ascending output order.
	require.Equal(t, "Service 000", got[0].Title)
	require.Equal(t, "Service 249", got[249].Title)
	require.Equal(t, "https://example.test/wms/123?request=GetCapabilities&service=WMS", got[123].ServiceURL)
}

func TestGetServiceRecordsMatchCountDrift(t *testing.T) {
	t.Parallel()

	records := make([]cswRecord, 150)
	for i := range records {
		records[i] = cswRecord{
			id:       fmt.Sprintf("id-%03d", i),
			title:    fmt.Sprintf("Service %03d", i),
			url:      fmt.Sprintf("https://example.test/wfs/%03d", i),
			protocol: "OGC:WFS",
		}
	}
	srv := newCSWServer(t, records, func(start int) int {
		if start > 1 {
			return 151
		}
		return 150
	})

	got, err := newTestClient(srv.URL).GetServiceRecordsByProtocol(
		context.Background(), model.ProtocolWFS, "Beheer PDOK", 0, FilterDefault)
	require.NoError(t, err)
	// Only the first page survives the truncation.
	require.Len(t, got, 100)
}

func TestGetServiceRecordsFiltersAndDeduplicates(t *testing.T) {
	t.Parallel()

	records := []cswRecord{
		{id: "id-1", title: "Wegen", url: "https://example.test/wms/a", protocol: "OGC:WMS"},
		{id: "id-2", title: "Wegen (oud)", url: "https://example.test/wms/a", protocol: "OGC:WMS"},
		{id: "id-3", title: "Zonder endpoint", url: "", protocol: "OGC:WMS"},
		{id: "id-4", title: "Percelen", url: "https://example.test/wms/b", protocol: "OGC:WMS"},
	}
	srv := newCSWServer(t, records, nil)

	got, err := newTestClient(srv.URL).GetServiceRecordsByProtocol(
		context.Background(), model.ProtocolWMS, "Beheer PDOK", 0, FilterDefault)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Percelen", got[0].Title)
	// Alphabetically first title wins the URL collision.
	require.Equal(t, "Wegen", got[1].Title)
	require.Equal(t, "id-1", got[1].MetadataID)
}

func TestGetServiceRecordsRawMode(t *testing.T) {
	t.Parallel()

	records := []cswRecord{
		{id: "id-1", title: "Wegen", url: "https://example.test/wms/a", protocol: "OGC:WMS"},
		{id: "id-2", title: "Wegen (oud)", url: "https://example.test/wms/a", protocol: "OGC:WMS"},
		{id: "id-3", title: "Zonder endpoint", url: "", protocol: "OGC:WMS"},
	}
	srv := newCSWServer(t, records, nil)

	got, err := newTestClient(srv.URL).GetServiceRecordsByProtocol(
		context.Background(), model.ProtocolWMS, "Beheer PDOK", 0, FilterRaw)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestGetServiceRecordsSkipsUnsupportedProtocols(t *testing.T) {
	t.Parallel()

	records := []cswRecord{
		{id: "id-1", title: "Viewer", url: "https://example.test/viewer", protocol: "landingpage"},
		{id: "id-2", title: "Wegen", url: "https://example.test/wms/a", protocol: "OGC:WMS"},
	}
	srv := newCSWServer(t, records, nil)

	got, err := newTestClient(srv.URL).GetServiceRecordsByProtocol(
		context.Background(), model.ProtocolWMS, "Beheer PDOK", 0, FilterDefault)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Wegen", got[0].Title)
}

func TestGetDatasetMetadata(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GetRecordById", r.URL.Query().Get("request"))
		require.Equal(t, "ds-1", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<csw:GetRecordByIdResponse xmlns:csw="http://www.opengis.net/cat/csw/2.0.2"
                           xmlns:gmd="http://www.isotc211.org/2005/gmd"
                           xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:MD_Metadata>
    <gmd:identificationInfo>
      <gmd:MD_DataIdentification>
        <gmd:citation><gmd:CI_Citation>
          <gmd:title><gco:CharacterString>Basisregistratie Topografie</gco:CharacterString></gmd:title>
        </gmd:CI_Citation></gmd:citation>
        <gmd:abstract><gco:CharacterString>De digitale topografische basiskaart.</gco:CharacterString></gmd:abstract>
      </gmd:MD_DataIdentification>
    </gmd:identificationInfo>
  </gmd:MD_Metadata>
</csw:GetRecordByIdResponse>`))
	}))
	t.Cleanup(srv.Close)

	got, err := newTestClient(srv.URL).GetDatasetMetadata(context.Background(), "ds-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Basisregistratie Topografie", got.Title)
	require.Equal(t, "De digitale topografische basiskaart.", got.Abstract)
	require.Equal(t, "ds-1", got.MetadataID)
}

func TestGetDatasetMetadataMiss(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<csw:GetRecordByIdResponse xmlns:csw="http://www.opengis.net/cat/csw/2.0.2"/>`))
	}))
	t.Cleanup(srv.Close)

	got, err := newTestClient(srv.URL).GetDatasetMetadata(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetListRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GetRecords", r.URL.Query().Get("request"))
		require.Empty(t, r.URL.Query().Get("outputSchema"))
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<csw:GetRecordsResponse xmlns:csw="http://www.opengis.net/cat/csw/2.0.2"
                        xmlns:dc="http://purl.org/dc/elements/1.1/"
                        xmlns:dct="http://purl.org/dc/terms/">
  <csw:SearchResults numberOfRecordsMatched="1" numberOfRecordsReturned="1" nextRecord="0">
    <csw:Record>
      <dc:identifier>rec-1</dc:identifier>
      <dc:title>Wegen WMS</dc:title>
      <dct:abstract>Alle wegen.</dct:abstract>
      <dc:type>service</dc:type>
      <dc:subject>wegen</dc:subject>
      <dc:subject>infrastructuur</dc:subject>
      <dct:modified>2024-03-01</dct:modified>
    </csw:Record>
  </csw:SearchResults>
</csw:GetRecordsResponse>`))
	}))
	t.Cleanup(srv.Close)

	got, err := newTestClient(srv.URL).GetListRecords(context.Background(), "type='service'", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "rec-1", got[0].Identifier)
	require.Equal(t, "Wegen WMS", got[0].Title)
	require.Equal(t, []string{"wegen", "infrastructuur"}, got[0].Keywords)
	require.Equal(t, "2024-03-01", got[0].Modified)
}

func TestProtocolQuery(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		"type='service' AND organisationName='Beheer PDOK' AND OnlineResourceType='OGC:WMS'",
		protocolQuery(model.ProtocolWMS, "Beheer PDOK"))
	require.Equal(t,
		"type='service' AND organisationName='Beheer PDOK' AND anyText='OGC:API tiles'",
		protocolQuery(model.ProtocolOGCAPITiles, "Beheer PDOK"))
}
