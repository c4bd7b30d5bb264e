package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

const (
	xpathServiceIdent  = ".//gmd:identificationInfo/srv:SV_ServiceIdentification"
	xpathCIResource    = ".//gmd:distributionInfo/gmd:MD_Distribution/gmd:transferOptions/gmd:MD_DigitalTransferOptions/gmd:onLine/gmd:CI_OnlineResource"
	xpathDataIdent     = ".//gmd:identificationInfo/gmd:MD_DataIdentification"
	ngrWMTSServicePath = "https://geodata.nationaalgeoregister.nl/tiles/service/wmts"
)

// parseServiceRecord extracts a ServiceRecord from one gmd:MD_Metadata node.
// Missing optional fields become empty strings.
func parseServiceRecord(n *xmlquery.Node, logger *zap.Logger) model.ServiceRecord {
	rec := model.ServiceRecord{
		MetadataID:         xmlutil.Text(n, ".//gmd:fileIdentifier/gco:CharacterString"),
		Title:              xmlutil.Text(n, xpathServiceIdent+"/gmd:citation/gmd:CI_Citation/gmd:title/gco:CharacterString"),
		Abstract:           xmlutil.Text(n, xpathServiceIdent+"/gmd:abstract/gco:CharacterString"),
		UseLimitation:      xmlutil.Text(n, xpathServiceIdent+"/gmd:resourceConstraints/gmd:MD_Constraints/gmd:useLimitation/gco:CharacterString"),
		OperatesOn:         xmlutil.Attr(n, xpathServiceIdent+"/srv:operatesOn", "href"),
		ServiceDescription: xmlutil.Text(n, xpathCIResource+"/gmd:description/gmx:Anchor"),
	}
	rec.Keywords = parseKeywords(n, rec.MetadataID, logger)
	rec.DatasetMetadataID = datasetIDFromOperatesOn(rec.OperatesOn)

	protoStr := xmlutil.Text(n, xpathCIResource+"/gmd:protocol/gmx:Anchor")
	if protoStr == "" {
		protoStr = xmlutil.Text(n, xpathCIResource+"/gmd:protocol/gco:CharacterString")
	}
	if p, err := model.ParseProtocol(protoStr); err == nil {
		rec.Protocol = p
	} else {
		rec.Protocol = model.Protocol(protoStr)
	}

	rawURL := xmlutil.Text(n, xpathCIResource+"/gmd:linkage/gmd:URL")
	rec.ServiceURL = canonicalServiceURL(rawURL, rec.Protocol)

	return rec
}

// parseKeywords collects keywords grouped by thesaurus namespace. Plain
// CharacterString keywords land under the empty key; Anchor keywords are
// grouped by their xlink target.
func parseKeywords(n *xmlquery.Node, metadataID string, logger *zap.Logger) map[string][]string {
	result := map[string][]string{}
	for _, kw := range xmlutil.FindAll(n, xpathServiceIdent+"/gmd:descriptiveKeywords/gmd:MD_Keywords/gmd:keyword") {
		if val := xmlutil.Text(kw, "./gco:CharacterString"); val != "" {
			result[""] = append(result[""], val)
			continue
		}
		anchor := xmlutil.FindOne(kw, "./gmx:Anchor")
		if anchor == nil {
			logger.Warn("unexpected keyword element",
				zap.String("metadata_id", metadataID))
			continue
		}
		ns := xmlutil.AttrOf(anchor, "href")
		result[ns] = append(result[ns], strings.TrimSpace(anchor.InnerText()))
	}
	return result
}

// datasetIDFromOperatesOn pulls the dataset metadata identifier out of the
// operatesOn xlink, which points at a GetRecordById request.
func datasetIDFromOperatesOn(operatesOn string) string {
	if operatesOn == "" {
		return ""
	}
	u, err := url.Parse(strings.ToLower(operatesOn))
	if err != nil {
		return ""
	}
	return u.Query().Get("id")
}

// canonicalServiceURL rewrites a classic OGC endpoint into an explicit
// GetCapabilities request. Feed and OGC API URLs are landing pages and pass
// through untouched.
func canonicalServiceURL(rawURL string, p model.Protocol) string {
	switch p {
	case model.ProtocolWMS, model.ProtocolWFS, model.ProtocolWCS, model.ProtocolWMTS:
	default:
		return rawURL
	}
	if rawURL == "" {
		return ""
	}
	u, _, _ := strings.Cut(rawURL, "?")
	// Some NGR WMTS records carry redundant path elements after the
	// service root, and restful records point at the capabilities file.
	if strings.Contains(u, ngrWMTSServicePath) {
		u = ngrWMTSServicePath
	}
	u = strings.TrimSuffix(u, "/WMTSCapabilities.xml")
	return fmt.Sprintf("%s?request=GetCapabilities&service=%s", u, p.QueryType())
}

// parseListRecord extracts a Dublin-Core summary record.
func parseListRecord(n *xmlquery.Node) model.ListRecord {
	return model.ListRecord{
		Title:      xmlutil.Text(n, "./dc:title"),
		Abstract:   xmlutil.Text(n, "./dct:abstract"),
		Type:       xmlutil.Text(n, "./dc:type"),
		Identifier: xmlutil.Text(n, "./dc:identifier"),
		Keywords:   xmlutil.Texts(n, "./dc:subject"),
		Modified:   xmlutil.Text(n, "./dct:modified"),
	}
}

// parseDatasetRecord extracts a DatasetRecord from a gmd:MD_Metadata node.
func parseDatasetRecord(n *xmlquery.Node, metadataID string) model.DatasetRecord {
	return model.DatasetRecord{
		Title:      xmlutil.Text(n, xpathDataIdent+"/gmd:citation/gmd:CI_Citation/gmd:title/gco:CharacterString"),
		Abstract:   xmlutil.Text(n, xpathDataIdent+"/gmd:abstract/gco:CharacterString"),
		MetadataID: metadataID,
	}
}
