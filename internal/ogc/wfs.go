package ogc

import (
	"context"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

// resolveWFS fetches a WFS 2.0.0 capabilities document and extracts the
// feature types and the GetFeature output formats.
func (r *Resolver) resolveWFS(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	doc, err := r.fetchXML(ctx, rec.ServiceURL)
	if err != nil {
		return nil, err
	}

	outputFormats := xmlutil.Texts(doc,
		"//ows:OperationsMetadata/ows:Operation[@name='GetFeature']/ows:Parameter[@name='outputFormat']/ows:AllowedValues/ows:Value")
	if outputFormats == nil {
		outputFormats = []string{}
	}

	featureTypes := []model.Layer{}
	for _, n := range xmlutil.FindAll(doc, "//wfs:FeatureTypeList/wfs:FeatureType") {
		featureTypes = append(featureTypes, model.Layer{
			Name:              xmlutil.Text(n, "./wfs:Name"),
			Title:             xmlutil.Text(n, "./wfs:Title"),
			Abstract:          xmlutil.Text(n, "./wfs:Abstract"),
			DatasetMetadataID: rec.DatasetMetadataID,
		})
	}

	return model.WFSService{
		ServiceCommon: serviceCommon(rec,
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Title"),
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Abstract"),
			xmlutil.Texts(doc, "//ows:ServiceIdentification/ows:Keywords/ows:Keyword")),
		OutputFormats: outputFormats,
		FeatureTypes:  featureTypes,
	}, nil
}
