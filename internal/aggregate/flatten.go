package aggregate

import (
	"github.com/geocatalogus/ngr-harvester/internal/model"
)

// FlatLayer is one output row of flat mode: a layer, feature type or
// coverage with selected service-level fields denormalized onto it. Styles
// holds []model.Style for the classic protocols and []model.TileStyle for
// vector tile services; only the protocol-relevant extras are set.
type FlatLayer struct {
	Name              string           `json:"name"`
	Title             string           `json:"title"`
	Abstract          string           `json:"abstract"`
	DatasetMetadataID string           `json:"dataset_metadata_id"`
	Styles            any              `json:"styles,omitempty"`
	CRS               string           `json:"crs,omitempty"`
	MinScale          string           `json:"minscale,omitempty"`
	MaxScale          string           `json:"maxscale,omitempty"`
	TileMatrixSets    string           `json:"tilematrixsets,omitempty"`
	ImgFormats        string           `json:"imgformats,omitempty"`
	Tiles             []model.OATTiles `json:"tiles,omitempty"`

	ServiceURL        string         `json:"service_url"`
	ServiceTitle      string         `json:"service_title"`
	ServiceAbstract   string         `json:"service_abstract"`
	ServiceProtocol   model.Protocol `json:"service_protocol"`
	ServiceMetadataID string         `json:"service_metadata_id"`
}

// Flatten explodes every service into one row per nested layer, feature
// type or coverage.
func Flatten(services []model.Service) ([]FlatLayer, error) {
	rows := []FlatLayer{}
	for _, s := range services {
		switch svc := s.(type) {
		case model.WMSService:
			for _, l := range svc.Layers {
				row := flatRow(l.Layer, svc.ServiceCommon)
				row.Styles = l.Styles
				row.CRS = l.CRS
				row.MinScale = l.MinScale
				row.MaxScale = l.MaxScale
				// WMS image formats are a GetMap property, copied onto
				// every row.
				row.ImgFormats = svc.ImgFormats
				rows = append(rows, row)
			}
		case model.WFSService:
			for _, l := range svc.FeatureTypes {
				rows = append(rows, flatRow(l, svc.ServiceCommon))
			}
		case model.WCSService:
			for _, l := range svc.Coverages {
				rows = append(rows, flatRow(l, svc.ServiceCommon))
			}
		case model.WMTSService:
			for _, l := range svc.Layers {
				row := flatRow(l.Layer, svc.ServiceCommon)
				row.Styles = l.Styles
				row.TileMatrixSets = l.TileMatrixSets
				row.ImgFormats = l.ImgFormats
				rows = append(rows, row)
			}
		case model.OAFService:
			for _, l := range svc.FeatureTypes {
				rows = append(rows, flatRow(l, svc.ServiceCommon))
			}
		case model.OATService:
			for _, l := range svc.Layers {
				row := flatRow(l.Layer, svc.ServiceCommon)
				row.Styles = l.Styles
				row.Tiles = l.Tiles
				rows = append(rows, row)
			}
		case model.AtomService:
			return nil, ErrAtomFlat
		}
	}
	return rows, nil
}

func flatRow(l model.Layer, common model.ServiceCommon) FlatLayer {
	return FlatLayer{
		Name:              l.Name,
		Title:             l.Title,
		Abstract:          l.Abstract,
		DatasetMetadataID: l.DatasetMetadataID,
		ServiceURL:        common.URL,
		ServiceTitle:      common.Title,
		ServiceAbstract:   common.Abstract,
		ServiceProtocol:   common.Protocol,
		ServiceMetadataID: common.MetadataID,
	}
}
