package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/search"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2101.00001v1</id>
    <title>Momentum  Strategies
      with RSI</title>
    <summary>We study   RSI based
      momentum strategies.</summary>
    <link href="http://arxiv.org/abs/2101.00001v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2101.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2101.00002v2</id>
    <title>Mean Reversion Backtests</title>
    <summary>A survey.</summary>
    <link href="http://arxiv.org/pdf/2101.00002v2" rel="related"/>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer srv.Close()

	a := search.NewWithConfig(types.SearchConfig{MaxResults: 5})
	a.ArxivAPI = srv.URL

	results, err := a.ArxivSearch(context.Background(), "RSI momentum", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "all:RSI momentum", gotQuery)
	// Abstract links win over PDF links; the entry ID backstops.
	assert.Equal(t, "http://arxiv.org/abs/2101.00001v1", results[0].URL)
	assert.Equal(t, "http://arxiv.org/abs/2101.00002v2", results[1].URL)
	// Whitespace in titles and summaries is collapsed.
	assert.Equal(t, "We study RSI based momentum strategies.", results[0].Snippet)
}

func TestSearch_ArxivHintUsesFastPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomFixture))
	}))
	defer srv.Close()

	a := search.NewWithConfig(types.SearchConfig{})
	a.ArxivAPI = srv.URL

	results, err := a.Search(context.Background(), "RSI momentum", 5, "arxiv.org")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NoBraveKeyDegradesToEmpty(t *testing.T) {
	a := search.NewWithConfig(types.SearchConfig{})

	results, err := a.Search(context.Background(), "RSI momentum", 5, "")
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Subscription-Token"))
		assert.Contains(t, r.URL.Query().Get("q"), "site:example.com")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"RSI guide","url":"https://example.com/rsi","description":"A guide."}
		]}}`))
	}))
	defer srv.Close()

	a := search.NewWithConfig(types.SearchConfig{BraveAPIKey: "secret"})
	a.BraveAPI = srv.URL

	results, err := a.Search(context.Background(), "RSI momentum", 3, "example.com")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/rsi", results[0].URL)
	assert.Equal(t, "RSI guide", results[0].Title)
}

func TestDomainSearches(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"web":{"results":[]}}`))
	}))
	defer srv.Close()

	a := search.NewWithConfig(types.SearchConfig{BraveAPIKey: "secret"})
	a.BraveAPI = srv.URL

	_, err := a.SSRNSearch(context.Background(), "pairs trading", 5)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "site:ssrn.com OR site:papers.ssrn.com")

	_, err = a.IDEASSearch(context.Background(), "pairs trading", 5)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "site:ideas.repec.org")
}
