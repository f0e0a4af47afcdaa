package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// CollectionField is the facet field naming a record's collection.
const CollectionField = "ir_collection_name"

// FacetCount is one facet value and the number of records carrying it.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type facetResponse struct {
	FacetCounts struct {
		FacetFields map[string][]json.RawMessage `json:"facet_fields"`
	} `json:"facet_counts"`
}

// FacetCounts returns the facet counts for field across all records, in API order.
func (c *Client) FacetCounts(ctx context.Context, field string) ([]FacetCount, error) {
	q := url.Values{}
	q.Set("q", "*")
	q.Set("facet", "on")
	q.Set("facet.field", field)
	q.Set("rows", "0")
	facetURL := c.apiRoot + "/search/?" + q.Encode()

	var resp facetResponse
	err := c.getWithRetry(ctx, facetURL, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching facet %s: %w", field, err)
	}
	raw, ok := resp.FacetCounts.FacetFields[field]
	if !ok {
		return nil, fmt.Errorf("facet %s missing from response", field)
	}
	return pairFacets(raw)
}

// pairFacets turns Solr's flat [name, count, name, count, ...] list into pairs.
func pairFacets(raw []json.RawMessage) ([]FacetCount, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("facet list has odd length %d", len(raw))
	}
	counts := make([]FacetCount, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		var fc FacetCount
		if err := json.Unmarshal(raw[i], &fc.Name); err != nil {
			return nil, fmt.Errorf("facet name at %d: %w", i, err)
		}
		if err := json.Unmarshal(raw[i+1], &fc.Count); err != nil {
			return nil, fmt.Errorf("facet count for %q: %w", fc.Name, err)
		}
		counts = append(counts, fc)
	}
	return counts, nil
}
