package ogc

import (
	"context"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

// resolveWMS fetches a WMS 1.3.0 capabilities document and extracts the
// named layers with their styles, CRS list and scale bounds.
func (r *Resolver) resolveWMS(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	doc, err := r.fetchXML(ctx, rec.ServiceURL)
	if err != nil {
		return nil, err
	}

	var layers []model.WMSLayer
	for _, n := range xmlutil.FindAll(doc, "//wms:Capability//wms:Layer") {
		name := xmlutil.Text(n, "./wms:Name")
		if name == "" {
			// Unnamed layers are grouping containers, not requestable.
			continue
		}
		layers = append(layers, parseWMSLayer(n, name))
	}

	return model.WMSService{
		ServiceCommon: serviceCommon(rec,
			xmlutil.Text(doc, "//wms:Service/wms:Title"),
			xmlutil.Text(doc, "//wms:Service/wms:Abstract"),
			xmlutil.Texts(doc, "//wms:Service/wms:KeywordList/wms:Keyword")),
		ImgFormats: strings.Join(xmlutil.Texts(doc, "//wms:Capability/wms:Request/wms:GetMap/wms:Format"), ","),
		Layers:     layers,
	}, nil
}

func parseWMSLayer(n *xmlquery.Node, name string) model.WMSLayer {
	styles := []model.Style{}
	for _, s := range xmlutil.FindAll(n, "./wms:Style") {
		styles = append(styles, model.Style{
			Name:      xmlutil.Text(s, "./wms:Name"),
			Title:     xmlutil.Text(s, "./wms:Title"),
			LegendURL: xmlutil.Attr(s, "./wms:LegendURL/wms:OnlineResource", "href"),
		})
	}

	datasetMDID := ""
	for _, mu := range xmlutil.FindAll(n, "./wms:MetadataURL") {
		if xmlutil.AttrOf(mu, "type") != "TC211" {
			continue
		}
		datasetMDID = mdIDFromURL(xmlutil.Attr(mu, "./wms:OnlineResource", "href"))
		break
	}

	return model.WMSLayer{
		Layer: model.Layer{
			Name:              name,
			Title:             xmlutil.Text(n, "./wms:Title"),
			Abstract:          xmlutil.Text(n, "./wms:Abstract"),
			DatasetMetadataID: datasetMDID,
		},
		Styles:   styles,
		CRS:      strings.Join(xmlutil.Texts(n, "./wms:CRS"), ","),
		MinScale: xmlutil.Text(n, "./wms:MinScaleDenominator"),
		MaxScale: xmlutil.Text(n, "./wms:MaxScaleDenominator"),
	}
}
