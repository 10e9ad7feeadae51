package normalizer

import (
	"strings"

	"github.com/taforge/taforge/internal/models"
)

// Upstream extractors supply source references in whatever shape the model
// produced: bare strings, objects with url/href/link keys, single objects,
// or nothing at all. Everything is coerced into the uniform Source shape,
// placeholder values are dropped, and the fetch URL backstops an otherwise
// empty list.

var sourcePlaceholders = map[string]bool{
	"URL_TO_BE_ATTACHED": true,
	"TBD":                true,
	"N/A":                true,
	"NA":                 true,
	"NONE":               true,
	"":                   true,
}

func coerceSources(raw any, sourceURL string) []models.Source {
	var out []models.Source

	add := func(url, doi, license string) {
		url = strings.TrimSpace(url)
		if sourcePlaceholders[strings.ToUpper(url)] {
			return
		}
		out = append(out, models.Source{URL: url, DOI: doi, License: license})
	}

	addObject := func(obj map[string]any) {
		url := firstString(obj, "url", "href", "link")
		if url == "" {
			return
		}
		add(url, firstString(obj, "doi"), firstString(obj, "license"))
	}

	switch v := raw.(type) {
	case nil:
	case string:
		add(v, "", "")
	case map[string]any:
		addObject(v)
	case []models.Source:
		for _, s := range v {
			add(s.URL, s.DOI, s.License)
		}
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				add(it, "", "")
			case map[string]any:
				addObject(it)
			}
			// Other element types are ignored; the fetch URL backstop
			// below guarantees at least one source survives.
		}
	}

	if len(out) == 0 && sourceURL != "" {
		add(sourceURL, "", "")
	}
	return out
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
