package ogc

import (
	"context"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

// resolveWMTS fetches a WMTS 1.0.0 capabilities document and extracts the
// tile layers with styles, image formats and tile matrix set links.
func (r *Resolver) resolveWMTS(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	doc, err := r.fetchXML(ctx, rec.ServiceURL)
	if err != nil {
		return nil, err
	}

	layers := []model.WMTSLayer{}
	for _, n := range xmlutil.FindAll(doc, "//wmts:Contents/wmts:Layer") {
		layers = append(layers, parseWMTSLayer(n, rec.DatasetMetadataID))
	}

	return model.WMTSService{
		ServiceCommon: serviceCommon(rec,
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Title"),
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Abstract"),
			xmlutil.Texts(doc, "//ows:ServiceIdentification/ows:Keywords/ows:Keyword")),
		Layers: layers,
	}, nil
}

func parseWMTSLayer(n *xmlquery.Node, datasetMDID string) model.WMTSLayer {
	styles := []model.Style{}
	for _, s := range xmlutil.FindAll(n, "./wmts:Style") {
		styles = append(styles, model.Style{
			Name:      xmlutil.Text(s, "./ows:Identifier"),
			Title:     xmlutil.Text(s, "./ows:Title"),
			LegendURL: xmlutil.Attr(s, "./wmts:LegendURL", "href"),
		})
	}
	return model.WMTSLayer{
		Layer: model.Layer{
			Name:              xmlutil.Text(n, "./ows:Identifier"),
			Title:             xmlutil.Text(n, "./ows:Title"),
			Abstract:          xmlutil.Text(n, "./ows:Abstract"),
			DatasetMetadataID: datasetMDID,
		},
		Styles:         styles,
		TileMatrixSets: strings.Join(xmlutil.Texts(n, "./wmts:TileMatrixSetLink/wmts:TileMatrixSet"), ","),
		ImgFormats:     strings.Join(xmlutil.Texts(n, "./wmts:Format"), ","),
	}
}
