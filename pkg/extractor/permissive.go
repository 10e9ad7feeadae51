package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Model output is semi-structured and occasionally malformed, so candidate
// fields are read through a permissive intermediate representation before
// anything binds to the typed record: each accessor reports whether the
// field was well-formed, coercible (with a flag) or unusable.

// jsonArray extracts and parses the first JSON array found in s. The model
// sometimes wraps its answer in prose or code fences despite instructions.
func jsonArray(s string) ([]map[string]any, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var raw []any
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, len(out) > 0
}

// fieldString reads a string field, coercing numbers when needed.
func fieldString(m map[string]any, key string, flags *[]string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		*flags = append(*flags, "coerced_"+key)
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		*flags = append(*flags, "coerced_"+key)
		return strconv.FormatBool(t)
	default:
		*flags = append(*flags, "unparseable_"+key)
		return ""
	}
}

// fieldNumber reads a numeric field, coercing numeric strings.
func fieldNumber(m map[string]any, key string, flags *[]string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			*flags = append(*flags, "coerced_"+key)
			return &f
		}
		*flags = append(*flags, "unparseable_"+key)
		return nil
	default:
		*flags = append(*flags, "unparseable_"+key)
		return nil
	}
}

// fieldParams reads a nested object of named numeric parameters.
func fieldParams(m map[string]any, key string, flags *[]string) map[string]float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		*flags = append(*flags, "unparseable_"+key)
		return nil
	}
	out := make(map[string]float64, len(obj))
	for k, pv := range obj {
		switch t := pv.(type) {
		case float64:
			out[k] = t
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				*flags = append(*flags, fmt.Sprintf("coerced_%s.%s", key, k))
				out[k] = f
			} else {
				*flags = append(*flags, fmt.Sprintf("unparseable_%s.%s", key, k))
			}
		default:
			*flags = append(*flags, fmt.Sprintf("unparseable_%s.%s", key, k))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeComparator maps the phrasings models emit to canonical tokens.
func normalizeComparator(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	switch s {
	case "gt", ">", "greater_than", "above", "exceeds", "rises_above":
		return "gt"
	case "lt", "<", "less_than", "below", "dips_below", "falls_below":
		return "lt"
	case "gte", ">=":
		return "gte"
	case "lte", "<=":
		return "lte"
	case "cross_above", "crosses_above", "crossover_above", "crosses_back_above":
		return "cross_above"
	case "cross_below", "crosses_below", "crossover_below", "crosses_back_below":
		return "cross_below"
	default:
		return ""
	}
}

func normalizeDirection(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "enter", "buy", "open":
		return "entry"
	case "exit", "sell", "close":
		return "exit"
	case "long":
		return "long"
	case "short":
		return "short"
	default:
		return ""
	}
}
