package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newElasticTestServer serves handler behind the product header the client checks for.
func newElasticTestServer(t *testing.T, handler http.HandlerFunc) *ElasticBackend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	b, err := NewElasticBackend([]string{srv.URL}, "")
	require.NoError(t, err)
	return b
}

func TestNewElasticBackend_RequiresAddress(t *testing.T) {
	_, err := NewElasticBackend(nil, "")
	assert.Error(t, err)
}

func TestElasticBackend_ListIndexesSkipsHidden(t *testing.T) {
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_cat/indices", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`[{"index":"leak_b"},{"index":".kibana"},{"index":"leak_a"}]`))
	})
	names, err := b.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"leak_a", "leak_b"}, names)
}

func TestElasticBackend_FilterableFieldsFromMapping(t *testing.T) {
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/_mapping", r.URL.Path)
		_, _ = w.Write([]byte(`{"people":{"mappings":{"properties":{
			"username":{"type":"keyword"},
			"account_id":{"type":"long"},
			"full_name":{"type":"text"}}}}}`))
	})
	fields, err := b.FilterableFields(context.Background(), "people")
	require.NoError(t, err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "account_id")
	assert.NotContains(t, fields, "full_name")
}

func TestElasticBackend_MissingIndex(t *testing.T) {
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})
	_, err := b.FilterableFields(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestElasticBackend_SearchBuildsTermFilter(t *testing.T) {
	var body map[string]interface{}
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/_search", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"1","_source":{"full_name":"John Smith","username":"jsmith"}},
			{"_id":"2","_source":{"id":"own","username":"jsmith"}}]}}`))
	})
	hits, err := b.Search(context.Background(), "people", "jsmith", SearchOptions{
		Filter: EqualityFilter("username", "jsmith"),
		Limit:  100,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "John Smith", hits[0]["full_name"])
	assert.Equal(t, "1", hits[0]["id"])
	assert.Equal(t, "own", hits[1]["id"])

	assert.Equal(t, float64(100), body["size"])
	query := body["query"].(map[string]interface{})
	filter := query["bool"].(map[string]interface{})["filter"].([]interface{})
	term := filter[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "jsmith", term["username"])
}

func TestElasticBackend_SearchAllTerms(t *testing.T) {
	var body map[string]interface{}
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})
	hits, err := b.Search(context.Background(), "people", "john smith", SearchOptions{MatchingStrategy: MatchingStrategyAll})
	require.NoError(t, err)
	assert.Empty(t, hits)
	mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "john smith", mm["query"])
	assert.Equal(t, "and", mm["operator"])
	assert.Equal(t, float64(20), body["size"])
}

func TestElasticBackend_SearchEmptyQueryMatchesAll(t *testing.T) {
	var body map[string]interface{}
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})
	_, err := b.Search(context.Background(), "people", "", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Contains(t, body["query"], "match_all")
}

func TestElasticBackend_Health(t *testing.T) {
	status := "yellow"
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_cluster/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
	})
	h, err := b.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, h.Status)

	status = "red"
	h, err = b.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "red", h.Status)
}

func TestElasticBackend_DocumentCount(t *testing.T) {
	b := newElasticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/_count", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":42}`))
	})
	n, err := b.DocumentCount(context.Background(), "people")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
