package ogc

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/model"
)

// stubGetter serves canned bodies per URL and can fail a URL a fixed number
// of times before succeeding.
type stubGetter struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]int
	calls     []string
}

func newStubGetter() *stubGetter {
	return &stubGetter{
		responses: map[string][]byte{},
		failures:  map[string]int{},
	}
}

func (g *stubGetter) add(url, body string) {
	g.responses[url] = []byte(body)
}

func (g *stubGetter) Get(_ context.Context, url string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, url)
	if n := g.failures[url]; n > 0 {
		g.failures[url] = n - 1
		return nil, fmt.Errorf("get %s: connection refused", url)
	}
	body, ok := g.responses[url]
	if !ok {
		return nil, fmt.Errorf("get %s: not found", url)
	}
	return body, nil
}

func (g *stubGetter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newTestResolver(getter *stubGetter) *Resolver {
	return NewResolver(getter, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, zap.NewNop())
}

func wmsRecord(url string) model.ServiceRecord {
	return model.ServiceRecord{
		MetadataID:        "md-1",
		DatasetMetadataID: "ds-1",
		ServiceURL:        url,
		Protocol:          model.ProtocolWMS,
	}
}

func TestResolveSecureURLSkipsNetwork(t *testing.T) {
	t.Parallel()

	getter := newStubGetter()
	rec := wmsRecord("https://secure.example.test/wms?request=GetCapabilities&service=WMS")

	got := newTestResolver(getter).Resolve(context.Background(), rec)
	require.Nil(t, got.Service)
	require.NotNil(t, got.Err)
	require.Equal(t, rec.ServiceURL, got.Err.URL)
	require.Equal(t, "md-1", got.Err.MetadataID)
	require.Zero(t, getter.callCount())
}

func TestResolveUnsupportedProtocol(t *testing.T) {
	t.Parallel()

	rec := model.ServiceRecord{
		MetadataID: "md-1",
		ServiceURL: "https://example.test/odd",
		Protocol:   model.Protocol("landingpage"),
	}
	got := newTestResolver(newStubGetter()).Resolve(context.Background(), rec)
	require.Nil(t, got.Service)
	require.NotNil(t, got.Err)
}

func TestResolveRecoversAfterTwoFailures(t *testing.T) {
	t.Parallel()

	url := "https://example.test/wcs?request=GetCapabilities&service=WCS"
	getter := newStubGetter()
	getter.add(url, wcsCapabilities)
	getter.failures[url] = 2

	rec := wmsRecord(url)
	rec.Protocol = model.ProtocolWCS

	got := newTestResolver(getter).Resolve(context.Background(), rec)
	require.Nil(t, got.Err)
	require.IsType(t, model.WCSService{}, got.Service)
	require.Equal(t, 3, getter.callCount())
}

func TestResolveAllAttemptsFail(t *testing.T) {
	t.Parallel()

	url := "https://example.test/wcs?request=GetCapabilities&service=WCS"
	getter := newStubGetter()
	getter.failures[url] = 3

	rec := wmsRecord(url)
	rec.Protocol = model.ProtocolWCS

	got := newTestResolver(getter).Resolve(context.Background(), rec)
	require.Nil(t, got.Service)
	require.NotNil(t, got.Err)
	require.Equal(t, url, got.Err.URL)
	require.Equal(t, 3, getter.callCount())
}

func TestMDIDFromURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "uuid-1",
		mdIDFromURL("https://example.test/csw?uuid=uuid-1&id=id-1"))
	require.Equal(t, "id-1",
		mdIDFromURL("https://example.test/csw?ID=id-1"))
	require.Empty(t, mdIDFromURL("https://example.test/csw"))
}
