// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"context"
	"errors"
	"fmt"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// maxResultsPerRequest is the Custom Search API's upper bound for num.
const maxResultsPerRequest = 10

// Searcher finds image URLs for a query.
type Searcher interface {
	SearchImages(ctx context.Context, query string, max int) ([]string, error)
}

// CustomSearch queries the Google Custom Search JSON API in image mode.
type CustomSearch struct {
	svc      *customsearch.Service
	engineID string
}

// NewCustomSearch builds a searcher for the engine cx. Extra options let
// tests point the service at a local endpoint.
func NewCustomSearch(ctx context.Context, apiKey, engineID string, extra ...option.ClientOption) (*CustomSearch, error) {
	if apiKey == "" || engineID == "" {
		return nil, errors.New("custom search requires an API key and a search engine id")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, extra...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}
	return &CustomSearch{svc: svc, engineID: engineID}, nil
}

// SearchImages returns up to max result links for query.
func (c *CustomSearch) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	if max <= 0 {
		max = 1
	}
	if max > maxResultsPerRequest {
		max = maxResultsPerRequest
	}

	res, err := c.svc.Cse.List().
		Cx(c.engineID).
		Q(query).
		SearchType("image").
		Num(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("custom search: HTTP %d: %s: %w", gerr.Code, gerr.Message, err)
		}
		return nil, fmt.Errorf("custom search: %w", err)
	}

	links := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Link == "" {
			continue
		}
		links = append(links, item.Link)
		if len(links) == max {
			break
		}
	}
	return links, nil
}
