package ogc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geocatalogus/ngr-harvester/internal/model"
)

const wmtsCapabilities = `<?xml version="1.0" encoding="UTF-8"?>
<Capabilities version="1.0.0"
    xmlns="http://www.opengis.net/wmts/1.0"
    xmlns:ows="http://www.opengis.net/ows/1.1"
    xmlns:xlink="http://www.w3.org/1999/xlink">
  <ows:ServiceIdentification>
    <ows:Title>BRT Achtergrondkaart</ows:Title>
    <ows:Abstract>Topografische achtergrondkaart.</ows:Abstract>
    <ows:Keywords>
      <ows:Keyword>achtergrondkaart</ows:Keyword>
    </ows:Keywords>
  </ows:ServiceIdentification>
  <Contents>
    <Layer>
      <ows:Title>Standaard</ows:Title>
      <ows:Abstract>Standaard visualisatie.</ows:Abstract>
      <ows:Identifier>brtachtergrondkaart</ows:Identifier>
      <Style isDefault="true">
        <ows:Title>Standaard stijl</ows:Title>
        <ows:Identifier>default</ows:Identifier>
        <LegendURL format="image/png" xlink:href="https://example.test/legend/brt.png"/>
      </Style>
      <Format>image/png</Format>
      <Format>image/jpeg</Format>
      <TileMatrixSetLink><TileMatrixSet>EPSG:28992</TileMatrixSet></TileMatrixSetLink>
      <TileMatrixSetLink><TileMatrixSet>EPSG:3857</TileMatrixSet></TileMatrixSetLink>
    </Layer>
    <Layer>
      <ows:Title>Grijs</ows:Title>
      <ows:Identifier>brtachtergrondkaartgrijs</ows:Identifier>
      <Format>image/png</Format>
      <TileMatrixSetLink><TileMatrixSet>EPSG:28992</TileMatrixSet></TileMatrixSetLink>
    </Layer>
  </Contents>
</Capabilities>`

func TestResolveWMTS(t *testing.T) {
	t.Parallel()

	url := "https://example.test/wmts?request=GetCapabilities&service=WMTS"
	getter := newStubGetter()
	getter.add(url, wmtsCapabilities)

	rec := wmsRecord(url)
	rec.Protocol = model.ProtocolWMTS

	got := newTestResolver(getter).Resolve(context.Background(), rec)
	require.Nil(t, got.Err)

	svc, ok := got.Service.(model.WMTSService)
	require.True(t, ok)
	require.Equal(t, "BRT Achtergrondkaart", svc.Title)
	require.Len(t, svc.Layers, 2)

	standaard := svc.Layers[0]
	require.Equal(t, "brtachtergrondkaart", standaard.Name)
	require.Equal(t, "Standaard", standaard.Title)
	require.Equal(t, "image/png,image/jpeg", standaard.ImgFormats)
	require.Equal(t, "EPSG:28992,EPSG:3857", standaard.TileMatrixSets)
	require.Equal(t, "ds-1", standaard.DatasetMetadataID)
	require.Equal(t, []model.Style{{
		Name:      "default",
		Title:     "Standaard stijl",
		LegendURL: "https://example.test/legend/brt.png",
	}}, standaard.Styles)

	grijs := svc.Layers[1]
	require.Equal(t, "brtachtergrondkaartgrijs", grijs.Name)
	require.Equal(t, "image/png", grijs.ImgFormats)
	require.Empty(t, grijs.Styles)
}
