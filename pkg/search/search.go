// Package search adapts discovery backends behind one contract: an
// API-first path for sources that expose one (arXiv Atom, no key needed)
// and a Brave web-search fallback. A missing Brave credential degrades to
// empty results, never an error, so callers treat "no candidates" uniformly.
package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

const (
	defaultArxivAPI = "http://export.arxiv.org/api/query"
	defaultBraveAPI = "https://api.search.brave.com/res/v1/web/search"
)

type Adapter struct {
	config types.SearchConfig
	client *http.Client

	// Overridable for tests.
	ArxivAPI string
	BraveAPI string
}

func NewWithConfig(config types.SearchConfig) *Adapter {
	if config.MaxResults == 0 {
		config.MaxResults = 10
	}
	return &Adapter{
		config:   config,
		client:   &http.Client{Timeout: 20 * time.Second},
		ArxivAPI: defaultArxivAPI,
		BraveAPI: defaultBraveAPI,
	}
}

// Search keeps the arXiv fast path for arXiv-hinted queries and falls back
// to Brave otherwise (or when arXiv yields nothing).
func (a *Adapter) Search(ctx context.Context, query string, maxResults int, siteHint string) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = a.config.MaxResults
	}

	q := query
	if siteHint != "" {
		q = fmt.Sprintf("%s site:%s", query, siteHint)
	}

	if strings.Contains(strings.ToLower(siteHint), "arxiv") {
		res, err := a.ArxivSearch(ctx, query, maxResults)
		if err == nil && len(res) > 0 {
			return res, nil
		}
		return a.braveSearch(ctx, q, maxResults)
	}
	return a.braveSearch(ctx, q, maxResults)
}

// ArxivSearch queries the arXiv Atom API directly. No key required.
func (a *Adapter) ArxivSearch(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = a.config.MaxResults
	}
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ArxivAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv api status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return parseAtom(body)
}

// SSRNSearch is a Brave-backed, domain-allowlisted SSRN search.
func (a *Adapter) SSRNSearch(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	return a.domainSearch(ctx, query, []string{"ssrn.com", "papers.ssrn.com"}, maxResults)
}

// IDEASSearch is a Brave-backed, domain-allowlisted IDEAS/RePEc search.
func (a *Adapter) IDEASSearch(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	return a.domainSearch(ctx, query, []string{"ideas.repec.org"}, maxResults)
}

func (a *Adapter) domainSearch(ctx context.Context, query string, domains []string, maxResults int) ([]models.SearchResult, error) {
	if len(domains) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(domains))
	for i, d := range domains {
		clauses[i] = "site:" + d
	}
	q := fmt.Sprintf("%s (%s)", query, strings.Join(clauses, " OR "))
	return a.braveSearch(ctx, q, maxResults)
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (a *Adapter) braveSearch(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	key := strings.TrimSpace(a.config.BraveAPIKey)
	if key == "" {
		// Graceful no-key fallback: no candidates, not a failure.
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = a.config.MaxResults
	}

	params := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(maxResults)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BraveAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Subscription-Token", key)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]models.SearchResult, 0, len(parsed.Web.Results))
	for _, it := range parsed.Web.Results {
		out = append(out, models.SearchResult{
			Title:   it.Title,
			URL:     it.URL,
			Snippet: it.Description,
		})
	}
	return out, nil
}

type atomFeed struct {
	Entries []struct {
		ID      string `xml:"id"`
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		Links   []struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func parseAtom(body []byte) ([]models.SearchResult, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}

	var out []models.SearchResult
	for _, entry := range feed.Entries {
		link := ""
		for _, l := range entry.Links {
			if strings.Contains(l.Href, "arxiv.org/abs/") {
				link = l.Href
				break
			}
		}
		if link == "" {
			link = entry.ID
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" || link == "" {
			continue
		}
		out = append(out, models.SearchResult{
			Title:   title,
			URL:     link,
			Snippet: strings.Join(strings.Fields(entry.Summary), " "),
		})
	}
	return out, nil
}
