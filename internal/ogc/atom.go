package ogc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/geocatalogus/ngr-harvester/internal/model"
	"github.com/geocatalogus/ngr-harvester/internal/xmlutil"
)

// resolveAtom parses an INSPIRE Atom service feed and the dataset feeds it
// links to. Feed fetches are not retried: a feed is a static document and a
// miss on one dataset feed should not stall the batch for 10 seconds.
func (r *Resolver) resolveAtom(ctx context.Context, rec model.ServiceRecord) (model.Service, error) {
	body, err := r.getter.Get(ctx, rec.ServiceURL)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rec.ServiceURL, err)
	}

	datasets := []model.AtomDataset{}
	for _, entry := range xmlutil.FindAll(doc, "//atom:feed/atom:entry") {
		ds := model.AtomDataset{
			Name:              datasetFeedName(datasetFeedURL(entry)),
			Title:             xmlutil.Text(entry, "./atom:title"),
			Abstract:          xmlutil.Text(entry, "./atom:summary"),
			DatasetMetadataID: mdIDFromURL(atomLinkHref(entry, "describedby")),
		}
		feedURL := datasetFeedURL(entry)
		if feedURL != "" {
			downloads, err := r.fetchAtomDownloads(ctx, feedURL)
			if err != nil {
				r.logger.Warn("failed to fetch dataset feed",
					zap.String("url", feedURL),
					zap.Error(err))
			} else {
				ds.Downloads = downloads
			}
		}
		if ds.Downloads == nil {
			ds.Downloads = []model.AtomDownload{}
		}
		datasets = append(datasets, ds)
	}

	return model.AtomService{
		ServiceCommon: serviceCommon(rec,
			xmlutil.Text(doc, "//atom:feed/atom:title"),
			xmlutil.Text(doc, "//atom:feed/atom:subtitle"),
			nil),
		Datasets: datasets,
	}, nil
}

// fetchAtomDownloads parses a dataset feed into its download links. When the
// same URL appears both with and without a type attribute, the typed link
// wins.
func (r *Resolver) fetchAtomDownloads(ctx context.Context, feedURL string) ([]model.AtomDownload, error) {
	body, err := r.getter.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", feedURL, err)
	}

	byURL := map[string]int{}
	downloads := []model.AtomDownload{}
	for _, entry := range xmlutil.FindAll(doc, "//atom:feed/atom:entry") {
		for _, link := range xmlutil.FindAll(entry, "./atom:link") {
			rel := xmlutil.AttrOf(link, "rel")
			if rel != "" && rel != "alternate" && rel != "section" {
				continue
			}
			dl := model.AtomDownload{
				URL:   xmlutil.AttrOf(link, "href"),
				Type:  xmlutil.AttrOf(link, "type"),
				Title: xmlutil.AttrOf(link, "title"),
			}
			if dl.URL == "" {
				continue
			}
			if i, seen := byURL[dl.URL]; seen {
				if downloads[i].Type == "" && dl.Type != "" {
					downloads[i] = dl
				}
				continue
			}
			byURL[dl.URL] = len(downloads)
			downloads = append(downloads, dl)
		}
	}
	return downloads, nil
}

// datasetFeedURL returns the entry's dataset feed location: the alternate
// Atom link when present, the entry id otherwise.
func datasetFeedURL(entry *xmlquery.Node) string {
	for _, link := range xmlutil.FindAll(entry, "./atom:link") {
		if xmlutil.AttrOf(link, "rel") != "alternate" {
			continue
		}
		if strings.Contains(xmlutil.AttrOf(link, "type"), "atom") {
			return xmlutil.AttrOf(link, "href")
		}
	}
	return xmlutil.Text(entry, "./atom:id")
}

func atomLinkHref(entry *xmlquery.Node, rel string) string {
	for _, link := range xmlutil.FindAll(entry, "./atom:link") {
		if xmlutil.AttrOf(link, "rel") == rel {
			return xmlutil.AttrOf(link, "href")
		}
	}
	return ""
}

// datasetFeedName derives a short dataset name from the feed URL.
func datasetFeedName(feedURL string) string {
	trimmed := strings.TrimSuffix(feedURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimSuffix(trimmed, ".xml")
}
