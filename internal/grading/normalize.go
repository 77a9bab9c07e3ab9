package grading

import (
	"sort"
	"strconv"
	"strings"
)

// Responses arrive as decoded JSON (interface{}), so every coercion
// here has to tolerate []interface{}, json numbers and the like. A
// coercion failure is reported with ok=false and scores zero upstream;
// it never aborts grading.

// isBlank reports whether a response counts as unanswered.
func isBlank(response interface{}) bool {
	switch v := response.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func toText(response interface{}) (string, bool) {
	switch v := response.(type) {
	case string:
		return strings.TrimSpace(v), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

func toTextSlice(response interface{}) ([]string, bool) {
	switch v := response.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := toText(e)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		// a lone selection for a multi-part question
		return []string{v}, true
	}
	return nil, false
}

func toTextMap(response interface{}) (map[string]string, bool) {
	switch v := response.(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, e := range v {
			out[strings.TrimSpace(k)] = strings.TrimSpace(e)
		}
		return out, true
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, e := range v {
			s, ok := toText(e)
			if !ok {
				return nil, false
			}
			out[strings.TrimSpace(k)] = s
		}
		return out, true
	}
	return nil, false
}

// normalizeSet trims every element, folds case unless the question is
// case sensitive, removes duplicates and sorts ascending. Both the
// submitted set and the key go through this before comparison.
func normalizeSet(in []string, caseSensitive bool) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func containsText(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

func equalTextSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalText(a, b string, caseSensitive bool) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// lookupText finds a map entry by key, folding key case when the
// question is case insensitive.
func lookupText(m map[string]string, key string, caseSensitive bool) (string, bool) {
	if v, ok := m[strings.TrimSpace(key)]; ok {
		return v, true
	}
	if caseSensitive {
		return "", false
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
