package engine

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

// matchFilters evaluates a filter set. lookup returns the value a filter key refers to.
func matchFilters(filters models.SearchFilters, lookup func(key string) any) bool {
	if filters.IsEmpty() {
		return filters.OnEmptyFilter != models.EmptyFilterReturnNone
	}

	var results []bool

	for key, prefix := range filters.String {
		results = append(results, strings.HasPrefix(strings.ToLower(stringify(lookup(key))), strings.ToLower(prefix)))
	}

	for key, part := range filters.Fuzzy {
		results = append(results, strings.Contains(strings.ToLower(stringify(lookup(key))), strings.ToLower(part)))
	}

	for key, bounds := range filters.Range {
		results = append(results, inRange(lookup(key), bounds))
	}

	for key, want := range filters.Equal {
		results = append(results, looseEqual(lookup(key), want))
	}

	for key, want := range filters.NotEqual {
		results = append(results, !looseEqual(lookup(key), want))
	}

	for key := range filters.Empty {
		results = append(results, isEmpty(lookup(key)))
	}

	for key := range filters.NotEmpty {
		results = append(results, !isEmpty(lookup(key)))
	}

	for key, options := range filters.OneOf {
		value := lookup(key)
		results = append(results, slices.ContainsFunc(options, func(option any) bool {
			return looseEqual(value, option)
		}))
	}

	for key, wanted := range filters.Contains {
		results = append(results, containsAll(lookup(key), wanted))
	}

	if filters.AllOr {
		return slices.Contains(results, true)
	}

	return !slices.Contains(results, false)
}

func inRange(value any, bounds models.RangeFilter) bool {
	if value == nil {
		return false
	}

	if bounds.Low != nil && compareValues(value, bounds.Low) < 0 {
		return false
	}

	if bounds.High != nil && compareValues(value, bounds.High) > 0 {
		return false
	}

	return true
}

// compareValues orders numbers numerically and everything else by its text. nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		return cmp.Compare(af, bf)
	}

	return strings.Compare(stringify(a), stringify(b))
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		return af == bf
	}

	return stringify(a) == stringify(b)
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func containsAll(value any, wanted []any) bool {
	var items []any

	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		for _, item := range v {
			items = append(items, item)
		}
	case string:
		for _, want := range wanted {
			if !strings.Contains(v, stringify(want)) {
				return false
			}
		}

		return true
	default:
		return false
	}

	for _, want := range wanted {
		if !slices.ContainsFunc(items, func(item any) bool { return looseEqual(item, want) }) {
			return false
		}
	}

	return true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}
