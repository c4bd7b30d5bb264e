package ogc

import (
	"context"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

// resolveWCS fetches a WCS 1.1.0 capabilities document and extracts the
// coverage summaries. MapServer emits these legacy documents with the 1.1
// elements bound to the wrong ows namespace; the local-name matching in
// xmlutil reads both variants.
func (r *Resolver) resolveWCS(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	doc, err := r.fetchXML(ctx, rec.ServiceURL)
	if err != nil {
		return nil, err
	}

	coverages := []model.Layer{}
	for _, n := range xmlutil.FindAll(doc, "//wcs:Contents/wcs:CoverageSummary") {
		coverages = append(coverages, model.Layer{
			Name:              xmlutil.Text(n, "./wcs:Identifier"),
			Title:             xmlutil.Text(n, "./ows:Title"),
			Abstract:          xmlutil.Text(n, "./ows:Abstract"),
			DatasetMetadataID: rec.DatasetMetadataID,
		})
	}

	return model.WCSService{
		ServiceCommon: serviceCommon(rec,
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Title"),
			xmlutil.Text(doc, "//ows:ServiceIdentification/ows:Abstract"),
			xmlutil.Texts(doc, "//ows:ServiceIdentification/ows:Keywords/ows:Keyword")),
		Coverages: coverages,
	}, nil
}
