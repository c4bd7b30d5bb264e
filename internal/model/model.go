// Package model declares the unified data model shared by the catalogue
// client, the protocol normalizers and the aggregation stage. All types are
// read-only value objects that live for the duration of a single run.
package model

// ListRecord is a lightweight Dublin-Core catalogue search result. Identifier
// is the join key to the full metadata record.
type ListRecord struct {
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	Type       string   `json:"type"`
	Identifier string   `json:"identifier"`
	Keywords   []string `json:"keywords"`
	Modified   string   `json:"modified"`
}

// ServiceRecord is a service description extracted from one gmd metadata
// document. Missing optional fields are empty strings, never errors.
type ServiceRecord struct {
	MetadataID         string              `json:"metadata_id"`
	Title              string              `json:"title"`
	Abstract           string              `json:"abstract"`
	UseLimitation      string              `json:"use_limitation"`
	Keywords           map[string][]string `json:"keywords"`
	OperatesOn         string              `json:"operates_on"`
	DatasetMetadataID  string              `json:"dataset_metadata_id"`
	ServiceURL         string              `json:"service_url"`
	Protocol           Protocol            `json:"service_protocol"`
	ServiceDescription string              `json:"service_description"`
}

// FlatKeywords collapses the namespaced keyword map into a plain list.
func (r ServiceRecord) FlatKeywords() []string {
	out := []string{}
	for _, terms := range r.Keywords {
		out = append(out, terms...)
	}
	return out
}

// DatasetRecord describes the dataset a service operates on. Resolved lazily,
// one per distinct dataset metadata identifier.
type DatasetRecord struct {
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	MetadataID string `json:"metadata_id"`
}

// ServiceError marks a service whose capability document could not be
// produced. It is an ordinary value, not an error: batches carry a mixture of
// Service and ServiceError results.
type ServiceError struct {
	URL        string `json:"url"`
	MetadataID string `json:"metadata_id"`
}

// ServiceCommon holds the fields shared by every resolved service.
type ServiceCommon struct {
	Title             string   `json:"title"`
	Abstract          string   `json:"abstract"`
	MetadataID        string   `json:"metadata_id"`
	DatasetMetadataID string   `json:"dataset_metadata_id,omitempty"`
	URL               string   `json:"url"`
	Keywords          []string `json:"keywords"`
	Protocol          Protocol `json:"protocol"`
}

// Service is the sealed sum type over the per-protocol service variants.
// Dispatch happens by type switch, never by reflection.
type Service interface {
	Common() ServiceCommon
	isService()
}

// Style describes a WMS or WMTS layer style.
type Style struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	LegendURL string `json:"legend_url,omitempty"`
}

// TileStyle describes a vector tile style advertised by an OGC API Tiles
// styles document.
type TileStyle struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Stylesheet string `json:"stylesheet,omitempty"`
}

// Layer is the common shape of one unit of content: a map layer, feature
// type or coverage.
type Layer struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	Abstract          string `json:"abstract"`
	DatasetMetadataID string `json:"dataset_metadata_id"`
}

// WMSLayer extends Layer with styled-map extras.
type WMSLayer struct {
	Layer
	Styles   []Style `json:"styles"`
	CRS      string  `json:"crs"`
	MinScale string  `json:"minscale"`
	MaxScale string  `json:"maxscale"`
}

// WMTSLayer extends Layer with tile matrix set and image format extras.
type WMTSLayer struct {
	Layer
	Styles         []Style `json:"styles"`
	TileMatrixSets string  `json:"tilematrixsets"`
	ImgFormats     string  `json:"imgformats"`
}

// OATTileSet is one tile matrix set offered by an OGC API Tiles tileset.
type OATTileSet struct {
	ID      string `json:"tileset_id"`
	CRS     string `json:"tileset_crs"`
	MaxZoom int    `json:"tileset_max_zoomlevel,omitempty"`
}

// OATTiles is the tiles summary of an OGC API Tiles service.
type OATTiles struct {
	Title    string       `json:"title"`
	Abstract string       `json:"abstract"`
	TileSets []OATTileSet `json:"tilesets"`
}

// OATLayer extends Layer with vector tile styles and tileset metadata.
type OATLayer struct {
	Layer
	Styles []TileStyle `json:"styles"`
	Tiles  []OATTiles  `json:"tiles"`
}

// AtomDownload is one download link of an Atom dataset feed entry.
type AtomDownload struct {
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// AtomDataset is one dataset entry of an INSPIRE Atom service feed together
// with the download links of its dataset feed.
type AtomDataset struct {
	Name              string         `json:"name"`
	Title             string         `json:"title"`
	Abstract          string         `json:"abstract"`
	DatasetMetadataID string         `json:"dataset_metadata_id"`
	Downloads         []AtomDownload `json:"downloads"`
}

// WMSService is a resolved map service.
type WMSService struct {
	ServiceCommon
	ImgFormats string     `json:"imgformats"`
	Layers     []WMSLayer `json:"layers"`
}

// WFSService is a resolved feature service.
type WFSService struct {
	ServiceCommon
	OutputFormats []string `json:"output_formats"`
	FeatureTypes  []Layer  `json:"featuretypes"`
}

// WCSService is a resolved coverage service.
type WCSService struct {
	ServiceCommon
	Coverages []Layer `json:"coverages"`
}

// WMTSService is a resolved tile service.
type WMTSService struct {
	ServiceCommon
	Layers []WMTSLayer `json:"layers"`
}

// AtomService is a resolved INSPIRE Atom download service.
type AtomService struct {
	ServiceCommon
	Datasets []AtomDataset `json:"datasets"`
}

// OAFService is a resolved OGC API Features service.
type OAFService struct {
	ServiceCommon
	FeatureTypes []Layer `json:"featuretypes"`
}

// OATService is a resolved OGC API Tiles service.
type OATService struct {
	ServiceCommon
	Layers []OATLayer `json:"layers"`
}

func (s WMSService) Common() ServiceCommon  { return s.ServiceCommon }
func (s WFSService) Common() ServiceCommon  { return s.ServiceCommon }
func (s WCSService) Common() ServiceCommon  { return s.ServiceCommon }
func (s WMTSService) Common() ServiceCommon { return s.ServiceCommon }
func (s AtomService) Common() ServiceCommon { return s.ServiceCommon }
func (s OAFService) Common() ServiceCommon  { return s.ServiceCommon }
func (s OATService) Common() ServiceCommon  { return s.ServiceCommon }

func (WMSService) isService()  {}
func (WFSService) isService()  {}
func (WCSService) isService()  {}
func (WMTSService) isService() {}
func (AtomService) isService() {}
func (OAFService) isService()  {}
func (OATService) isService()  {}

// Dataset groups the services operating on one dataset metadata record.
type Dataset struct {
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	MetadataID string    `json:"metadata_id"`
	Services   []Service `json:"services"`
}
