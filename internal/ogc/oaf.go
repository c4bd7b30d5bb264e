package ogc

import (
	"context"
	"fmt"

	"github.com/geocatalogus/ngr-harvester/internal/model"
)

type oaLandingPage struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Links       []oaLink `json:"links"`
}

type oaLink struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type oaServiceDesc struct {
	Info struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"info"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Servers []struct {
		URL string `json:"url"`
	} `json:"servers"`
	Paths map[string]any `json:"paths"`
}

func (d oaServiceDesc) tagNames() []string {
	names := []string{}
	for _, t := range d.Tags {
		names = append(names, t.Name)
	}
	return names
}

type oaCollections struct {
	Collections []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"collections"`
}

func linkByRel(links []oaLink, match func(rel string) bool) string {
	for _, l := range links {
		if match(l.Rel) {
			return l.Href
		}
	}
	return ""
}

// resolveOAF walks an OGC API Features landing page: the service-desc link
// yields the OpenAPI description, the data link yields the collections. The
// whole walk runs under one retry budget.
func (r *Resolver) resolveOAF(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	var svc model.OAFService
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

		dataURL := linkByRel(landing.Links, func(rel string) bool { return rel == "data" })
		if dataURL == "" {
			return fmt.Errorf("landing page %s has no data link", rec.ServiceURL)
		}
		var collections oaCollections
		if err := r.fetchJSON(ctx, dataURL, &collections); err != nil {
			return err
		}

		featureTypes := []model.Layer{}
		for _, c := range collections.Collections {
			featureTypes = append(featureTypes, model.Layer{
				Name:              c.ID,
				Title:             c.Title,
				Abstract:          c.Description,
				DatasetMetadataID: rec.DatasetMetadataID,
			})
		}

		title := landing.Title
		if title == "" {
			title = desc.Info.Title
		}
		abstract := landing.Description
		if abstract == "" {
			abstract = desc.Info.Description
		}
		svc = model.OAFService{
			ServiceCommon: serviceCommon(rec, title, abstract, desc.tagNames()),
			FeatureTypes:  featureTypes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
