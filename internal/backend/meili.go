package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meilisearch/meilisearch-go"
)

const (
	indexPageSize      = 1000
	filterableCacheLen = 32
)

// MeiliClient implements Backend over the Meilisearch SDK.
type MeiliClient struct {
	apiKey     string
	client     meilisearch.ServiceManager
	filterable *lru.Cache[string, map[string]struct{}]
}

// MeiliOption configures a MeiliClient.
type MeiliOption func(*MeiliClient)

// WithAPIKey sets the key sent as a bearer token.
func WithAPIKey(key string) MeiliOption {
	return func(c *MeiliClient) { c.apiKey = key }
}

// NewMeiliClient creates a client for the Meilisearch instance at baseURL.
func NewMeiliClient(baseURL string, opts ...MeiliOption) (*MeiliClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("meilisearch url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid meilisearch url: %w", err)
	}
	cache, err := lru.New[string, map[string]struct{}](filterableCacheLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create filterable cache: %w", err)
	}
	c := &MeiliClient{filterable: cache}
	for _, opt := range opts {
		opt(c)
	}
	var sdkOpts []meilisearch.Option
	if c.apiKey != "" {
		sdkOpts = append(sdkOpts, meilisearch.WithAPIKey(c.apiKey))
	}
	c.client = meilisearch.New(strings.TrimRight(baseURL, "/"), sdkOpts...)
	return c, nil
}

// ListIndexes pages through the index list and returns every index uid.
func (c *MeiliClient) ListIndexes(ctx context.Context) ([]string, error) {
	var names []string
	var offset int64
	for {
		page, err := c.client.ListIndexesWithContext(ctx, &meilisearch.IndexesQuery{
			Limit:  indexPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list indexes: %w", mapMeiliError(err))
		}
		if len(page.Results) == 0 {
			break
		}
		for _, r := range page.Results {
			names = append(names, r.UID)
		}
		offset += int64(len(page.Results))
		if len(page.Results) < indexPageSize {
			break
		}
	}
	return names, nil
}

// FilterableFields returns the filterable attributes of index. Results are cached per index.
func (c *MeiliClient) FilterableFields(ctx context.Context, index string) (map[string]struct{}, error) {
	if fields, ok := c.filterable.Get(index); ok {
		return fields, nil
	}
	attrs, err := c.client.Index(index).GetFilterableAttributesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("filterable attributes for %s: %w", index, mapMeiliError(err))
	}
	var raw []json.RawMessage
	if attrs != nil {
		data, err := json.Marshal(attrs)
		if err != nil {
			return nil, fmt.Errorf("filterable attributes for %s: %w", index, err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("filterable attributes for %s: %w", index, err)
		}
	}
	fields := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			fields[name] = struct{}{}
			continue
		}
		// Granular settings describe attributes as pattern objects.
		var pattern struct {
			AttributePatterns []string `json:"attributePatterns"`
		}
		if err := json.Unmarshal(item, &pattern); err == nil {
			for _, p := range pattern.AttributePatterns {
				fields[p] = struct{}{}
			}
		}
	}
	c.filterable.Add(index, fields)
	return fields, nil
}

// ResetFilterableCache drops cached filterable attributes, e.g. after an index reload.
func (c *MeiliClient) ResetFilterableCache() {
	c.filterable.Purge()
}

// Search runs a search request against index.
func (c *MeiliClient) Search(ctx context.Context, index, query string, opts SearchOptions) ([]Hit, error) {
	req := &meilisearch.SearchRequest{Limit: int64(opts.Limit)}
	if opts.Filter != "" {
		req.Filter = opts.Filter
	}
	if opts.MatchingStrategy == MatchingStrategyAll {
		req.MatchingStrategy = meilisearch.All
	}
	resp, err := c.client.Index(index).SearchWithContext(ctx, query, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, mapMeiliError(err))
	}
	data, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	var hits []Hit
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&hits); err != nil {
		return nil, fmt.Errorf("search %s: decode hits: %w", index, err)
	}
	return hits, nil
}

// Health reports the instance status.
func (c *MeiliClient) Health(ctx context.Context) (*Health, error) {
	h, err := c.client.HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: %w", mapMeiliError(err))
	}
	return &Health{Status: h.Status}, nil
}

// DocumentCount reads numberOfDocuments from the index stats.
func (c *MeiliClient) DocumentCount(ctx context.Context, index string) (int64, error) {
	stats, err := c.client.Index(index).GetStatsWithContext(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("stats %s: %w", index, mapMeiliError(err))
	}
	return stats.NumberOfDocuments, nil
}

// mapMeiliError turns a 404 from the SDK into ErrIndexNotFound.
func mapMeiliError(err error) error {
	var me *meilisearch.Error
	if errors.As(err, &me) && me.StatusCode == http.StatusNotFound {
		return ErrIndexNotFound
	}
	return err
}
