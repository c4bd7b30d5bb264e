package ogc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/geocatalogus/ngr-harvester/internal/model"
)

type oatStylesDoc struct {
	Default string `json:"default"`
	Styles  []struct {
		ID    string   `json:"id"`
		Title string   `json:"title"`
		Links []oaLink `json:"links"`
	} `json:"styles"`
}

type oatTilesDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TileSets    []struct {
		TileMatrixSetID string   `json:"tileMatrixSetId"`
		CRS             string   `json:"crs"`
		Links           []oaLink `json:"links"`
	} `json:"tilesets"`
}

type oatTileSetInfo struct {
	TileMatrixSetLimits []struct {
		TileMatrix string `json:"tileMatrix"`
	} `json:"tileMatrixSetLimits"`
}

// resolveOAT walks an OGC API Tiles landing page: service-desc for the
// OpenAPI description, the styles and tilesets documents for the single
// vector tile layer the service exposes. The service URL in the result is
// the tile request template taken from the OpenAPI paths.
func (r *Resolver) resolveOAT(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	var svc model.OATService
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		var landing oaLandingPage
		if err := r.fetchJSON(ctx, rec.ServiceURL, &landing); err != nil {
			return err
		}

		descURL := linkByRel(landing.Links, func(rel string) bool { return rel == "service-desc" })
		if descURL == "" {
			return fmt.Errorf("landing page %s has no service-desc link", rec.ServiceURL)
		}
		var desc oaServiceDesc
		if err := r.fetchJSON(ctx, descURL, &desc); err != nil {
			return err
		}

		stylesURL := linkByRel(landing.Links, func(rel string) bool {
			return rel == "data" || strings.HasSuffix(rel, "styles")
		})
		var stylesDoc oatStylesDoc
		if stylesURL != "" {
			if err := r.fetchJSON(ctx, stylesURL, &stylesDoc); err != nil {
				return err
			}
		}

		tilesURL := linkByRel(landing.Links, func(rel string) bool {
			return rel == "tiles" || strings.HasSuffix(rel, "tilesets-vector")
		})
		if tilesURL == "" {
			return fmt.Errorf("landing page %s has no tiles link", rec.ServiceURL)
		}
		var tilesDoc oatTilesDoc
		if err := r.fetchJSON(ctx, tilesURL, &tilesDoc); err != nil {
			return err
		}

		tileSets := []model.OATTileSet{}
		for _, ts := range tilesDoc.TileSets {
			maxZoom, err := r.tileSetMaxZoom(ctx, ts.Links)
			if err != nil {
				return err
			}
			tileSets = append(tileSets, model.OATTileSet{
				ID:      ts.TileMatrixSetID,
				CRS:     ts.CRS,
				MaxZoom: maxZoom,
			})
		}

		layer := model.OATLayer{
			Layer: model.Layer{
				Name:              tilesDoc.Title,
				Title:             tilesDoc.Title,
				Abstract:          tilesDoc.Description,
				DatasetMetadataID: rec.DatasetMetadataID,
			},
			Styles: tileStyles(stylesDoc),
			Tiles: []model.OATTiles{{
				Title:    tilesDoc.Title,
				Abstract: tilesDoc.Description,
				TileSets: tileSets,
			}},
		}

		title := landing.Title
		if title == "" {
			title = desc.Info.Title
		}
		abstract := landing.Description
		if abstract == "" {
			abstract = desc.Info.Description
		}
		svc = model.OATService{
			ServiceCommon: serviceCommon(rec, title, abstract, desc.tagNames()),
			Layers:        []model.OATLayer{layer},
		}
		if requestURL := tileRequestURL(desc); requestURL != "" {
			svc.URL = requestURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// tileStyles orders the advertised styles with the default style first.
func tileStyles(doc oatStylesDoc) []model.TileStyle {
	styles := []model.TileStyle{}
	for _, s := range doc.Styles {
		stylesheet := ""
		for _, l := range s.Links {
			if l.Rel == "stylesheet" {
				stylesheet = l.Href
			}
		}
		style := model.TileStyle{ID: s.ID, Title: s.Title, Stylesheet: stylesheet}
		if doc.Default != "" && (s.ID == doc.Default || s.Title == doc.Default) {
			styles = append([]model.TileStyle{style}, styles...)
		} else {
			styles = append(styles, style)
		}
	}
	return styles
}

// tileSetMaxZoom fetches the tileset's own document and returns the highest
// tile matrix level it limits.
func (r *Resolver) tileSetMaxZoom(ctx context.Context, links []oaLink) (int, error) {
	href := linkByRel(links, func(rel string) bool { return rel == "self" })
	if href == "" && len(links) > 0 {
		href = links[0].Href
	}
	if href == "" {
		return 0, nil
	}
	var info oatTileSetInfo
	if err := r.fetchJSON(ctx, href, &info); err != nil {
		return 0, err
	}
	maxZoom := 0
	for _, limit := range info.TileMatrixSetLimits {
		if z, err := strconv.Atoi(limit.TileMatrix); err == nil && z > maxZoom {
			maxZoom = z
		}
	}
	return maxZoom, nil
}

// tileRequestURL finds the tile template path in the OpenAPI document and
// prefixes it with the first server URL.
func tileRequestURL(desc oaServiceDesc) string {
	server := ""
	for _, s := range desc.Servers {
		if s.URL != "" {
			server = s.URL
			break
		}
	}
	if server == "" {
		return ""
	}
	for path := range desc.Paths {
		if strings.Contains(path, "{tileMatrixSetId}") &&
			strings.Contains(path, "{tileMatrix}") &&
			strings.Contains(path, "{tileRow}") &&
			strings.Contains(path, "{tileCol}") {
			return server + path
		}
	}
	return ""
}
