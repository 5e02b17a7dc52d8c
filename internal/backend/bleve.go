package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/hyperjump/osintrat/internal/models"
)

const importBatchSize = 500

// recordFields are the document fields indexed for full-text search.
var recordFields = []string{
	"full_name", "username", "email", "phone", "account_id",
	"address", "DOB", "country", "extra", "source",
}

// BleveBackend implements Backend over a directory of Bleve indexes, one sub-directory per index.
// It serves local development and offline operation without a Meilisearch instance.
type BleveBackend struct {
	root       string
	filterable map[string]struct{}
	mu         sync.Mutex
	open       map[string]bleve.Index
}

// NewBleveBackend creates a backend rooted at dir. filterable lists the fields mapped
// as exact keywords in newly created indexes; existing indexes keep their stored mapping.
func NewBleveBackend(dir string, filterable []string) (*BleveBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	f := make(map[string]struct{}, len(filterable))
	for _, name := range filterable {
		f[name] = struct{}{}
	}
	return &BleveBackend{
		root:       dir,
		filterable: f,
		open:       make(map[string]bleve.Index),
	}, nil
}

func (b *BleveBackend) indexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	for _, field := range recordFields {
		if _, ok := b.filterable[field]; ok {
			docMapping.AddFieldMappingsAt(field, keywordFieldMapping)
			continue
		}
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}
	im.DefaultMapping = docMapping
	return im
}

// index opens (or, when create is set, creates) the named index.
func (b *BleveBackend) index(name string, create bool) (bleve.Index, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.open[name]; ok {
		return idx, nil
	}
	path := filepath.Join(b.root, name)
	var (
		idx bleve.Index
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index %s: %w", name, err)
		}
	} else if create {
		idx, err = bleve.New(path, b.indexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index %s: %w", name, err)
		}
	} else {
		return nil, ErrIndexNotFound
	}
	b.open[name] = idx
	return idx, nil
}

// ListIndexes returns the sub-directories of the backend root, sorted by name.
func (b *BleveBackend) ListIndexes(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// FilterableFields returns the fields the index's stored mapping indexes as keywords.
// An index created before a field was configured as filterable does not report it.
func (b *BleveBackend) FilterableFields(ctx context.Context, index string) (map[string]struct{}, error) {
	idx, err := b.index(index, false)
	if err != nil {
		return nil, err
	}
	return keywordFields(idx.Mapping()), nil
}

func keywordFields(m mapping.IndexMapping) map[string]struct{} {
	out := make(map[string]struct{})
	impl, ok := m.(*mapping.IndexMappingImpl)
	if !ok || impl.DefaultMapping == nil {
		return out
	}
	for name, prop := range impl.DefaultMapping.Properties {
		for _, f := range prop.Fields {
			if f.Analyzer == keyword.Name {
				out[name] = struct{}{}
				break
			}
		}
	}
	return out
}

// Search runs query against index. A filter becomes an exact term query on its keyword
// field; otherwise an empty query matches everything and MatchingStrategyAll requires
// every term of the query to match.
func (b *BleveBackend) Search(ctx context.Context, index, query string, opts SearchOptions) ([]Hit, error) {
	idx, err := b.index(index, false)
	if err != nil {
		return nil, err
	}
	var q blevequery.Query
	switch {
	case opts.Filter != "":
		field, value, ok := ParseEqualityFilter(opts.Filter)
		if !ok {
			return nil, fmt.Errorf("invalid filter %q", opts.Filter)
		}
		if _, filterable := b.filterable[field]; !filterable {
			return nil, fmt.Errorf("attribute %q is not filterable", field)
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		q = tq
	case query == "":
		q = bleve.NewMatchAllQuery()
	default:
		mq := bleve.NewMatchQuery(query)
		if opts.MatchingStrategy == MatchingStrategyAll {
			mq.SetOperator(blevequery.MatchQueryOperatorAnd)
		}
		q = mq
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := make(Hit, len(h.Fields)+1)
		for k, v := range h.Fields {
			hit[k] = v
		}
		hit["id"] = h.ID
		hits = append(hits, hit)
	}
	return hits, nil
}

// Health reports available while the index root is a readable directory.
func (b *BleveBackend) Health(ctx context.Context) (*Health, error) {
	info, err := os.Stat(b.root)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if !info.IsDir() {
		return &Health{Status: "unavailable"}, nil
	}
	return &Health{Status: StatusAvailable}, nil
}

// DocumentCount returns the number of documents in index.
func (b *BleveBackend) DocumentCount(ctx context.Context, index string) (int64, error) {
	idx, err := b.index(index, false)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("doc count %s: %w", index, err)
	}
	return int64(n), nil
}

// RecordSource yields raw records one at a time. Next returns io.EOF after the last one.
type RecordSource interface {
	Next() (map[string]interface{}, error)
}

// ImportRecords indexes every record from src into index, creating it when missing.
// A record's "id" field becomes its document ID; records without one get a generated ID.
// Values are stored in their source text form. Returns the number of records indexed.
func (b *BleveBackend) ImportRecords(ctx context.Context, index string, src RecordSource) (int, error) {
	idx, err := b.index(index, true)
	if err != nil {
		return 0, err
	}
	batch := idx.NewBatch()
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		id := models.Stringify(rec["id"])
		if id == "" {
			id = uuid.New().String()
		}
		doc := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			if k == "id" || v == nil {
				continue
			}
			doc[k] = models.Stringify(v)
		}
		if err := batch.Index(id, doc); err != nil {
			return n, fmt.Errorf("record %d: %w", n+1, err)
		}
		n++
		if batch.Size() >= importBatchSize {
			if err := idx.Batch(batch); err != nil {
				return n, fmt.Errorf("index batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return n, fmt.Errorf("index batch: %w", err)
		}
	}
	return n, nil
}

// Close closes every open index.
func (b *BleveBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var firstErr error
	for name, idx := range b.open {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.open, name)
	}
	return firstErr
}
