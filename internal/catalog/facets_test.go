package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacetCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("q"))
		assert.Equal(t, "on", q.Get("facet"))
		assert.Equal(t, CollectionField, q.Get("facet.field"))
		assert.Equal(t, "0", q.Get("rows"))
		_, _ = w.Write([]byte(`{"response":{"docs":[]},"facet_counts":{"facet_fields":{"ir_collection_name":["Hall-Hoag",120,"Theses",7]}}}`))
	}))
	defer srv.Close()

	counts, err := newTestClient(t, srv.URL).FacetCounts(context.Background(), CollectionField)
	require.NoError(t, err)
	assert.Equal(t, []FacetCount{{Name: "Hall-Hoag", Count: 120}, {Name: "Theses", Count: 7}}, counts)
}

func TestFacetCountsMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"facet_counts":{"facet_fields":{}}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FacetCounts(context.Background(), CollectionField)
	assert.Error(t, err)
}

func TestPairFacets(t *testing.T) {
	raw := func(s string) []json.RawMessage {
		var out []json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		return out
	}

	got, err := pairFacets(raw(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = pairFacets(raw(`["lonely"]`))
	assert.Error(t, err)

	_, err = pairFacets(raw(`[3, "swapped"]`))
	assert.Error(t, err)
}
