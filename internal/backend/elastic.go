package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// filterableTypes are the Elasticsearch field types an exact term filter can target.
var filterableTypes = map[string]bool{
	"keyword": true, "long": true, "integer": true, "short": true, "constant_keyword": true,
}

// ElasticBackend implements Backend over an Elasticsearch cluster. Every non-hidden index
// is searchable; keyword and integer fields of an index's mapping are filterable.
type ElasticBackend struct {
	client *elasticsearch.Client
}

// NewElasticBackend creates a backend for the cluster at addresses. apiKey is optional.
func NewElasticBackend(addresses []string, apiKey string) (*ElasticBackend, error) {
	if len(addresses) == 0 || addresses[0] == "" {
		return nil, fmt.Errorf("elasticsearch address is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		APIKey:    apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticBackend{client: client}, nil
}

// ListIndexes returns every index not starting with a dot, sorted by name.
func (e *ElasticBackend) ListIndexes(ctx context.Context) ([]string, error) {
	res, err := e.client.Cat.Indices(
		e.client.Cat.Indices.WithContext(ctx),
		e.client.Cat.Indices.WithFormat("json"),
		e.client.Cat.Indices.WithH("index"),
	)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	var rows []struct {
		Index string `json:"index"`
	}
	if err := decodeResponse(res, &rows); err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Index == "" || strings.HasPrefix(r.Index, ".") {
			continue
		}
		names = append(names, r.Index)
	}
	sort.Strings(names)
	return names, nil
}

// FilterableFields returns the top-level fields of index mapped with a filterable type.
func (e *ElasticBackend) FilterableFields(ctx context.Context, index string) (map[string]struct{}, error) {
	res, err := e.client.Indices.GetMapping(
		e.client.Indices.GetMapping.WithContext(ctx),
		e.client.Indices.GetMapping.WithIndex(index),
	)
	if err != nil {
		return nil, fmt.Errorf("get mapping %s: %w", index, err)
	}
	var mappings map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := decodeResponse(res, &mappings); err != nil {
		return nil, fmt.Errorf("get mapping %s: %w", index, err)
	}
	out := make(map[string]struct{})
	for _, m := range mappings {
		for field, prop := range m.Mappings.Properties {
			if filterableTypes[prop.Type] {
				out[field] = struct{}{}
			}
		}
	}
	return out, nil
}

// Search runs query against index. A filter becomes a term filter; an empty query
// matches everything; MatchingStrategyAll requires every term across fields.
func (e *ElasticBackend) Search(ctx context.Context, index, query string, opts SearchOptions) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	var q map[string]interface{}
	switch {
	case opts.Filter != "":
		field, value, ok := ParseEqualityFilter(opts.Filter)
		if !ok {
			return nil, fmt.Errorf("invalid filter %q", opts.Filter)
		}
		q = map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{field: value}},
				},
			},
		}
	case query == "":
		q = map[string]interface{}{"match_all": map[string]interface{}{}}
	default:
		mm := map[string]interface{}{"query": query, "type": "cross_fields", "fields": []string{"*"}, "lenient": true}
		if opts.MatchingStrategy == MatchingStrategyAll {
			mm["operator"] = "and"
		}
		q = map[string]interface{}{"multi_match": mm}
	}
	body, err := json.Marshal(map[string]interface{}{"size": limit, "query": q})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	var result struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := decodeResponse(res, &result); err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	hits := make([]Hit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hit := Hit{}
		if err := json.Unmarshal(h.Source, &hit); err != nil {
			continue
		}
		if _, ok := hit["id"]; !ok {
			hit["id"] = h.ID
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Health maps the cluster status: green and yellow are available, red is not.
func (e *ElasticBackend) Health(ctx context.Context) (*Health, error) {
	res, err := e.client.Cluster.Health(e.client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	var h struct {
		Status string `json:"status"`
	}
	if err := decodeResponse(res, &h); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if h.Status == "green" || h.Status == "yellow" {
		return &Health{Status: StatusAvailable}, nil
	}
	return &Health{Status: h.Status}, nil
}

// DocumentCount returns the number of documents in index.
func (e *ElasticBackend) DocumentCount(ctx context.Context, index string) (int64, error) {
	res, err := e.client.Count(
		e.client.Count.WithContext(ctx),
		e.client.Count.WithIndex(index),
	)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	var c struct {
		Count int64 `json:"count"`
	}
	if err := decodeResponse(res, &c); err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	return c.Count, nil
}

// decodeResponse closes res and decodes its body into out. A 404 maps to ErrIndexNotFound.
func decodeResponse(res *esapi.Response, out interface{}) error {
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrIndexNotFound
	}
	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
