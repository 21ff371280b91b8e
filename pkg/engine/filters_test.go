package engine

import (
	"testing"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestMatchFilters(t *testing.T) {
	row := map[string]any{
		"name":  "Ada Lovelace",
		"age":   36.0,
		"tags":  []any{"math", "poetry"},
		"email": "",
		"count": "12",
	}
	lookup := func(key string) any { return row[key] }

	testCases := []struct {
		name    string
		filters models.SearchFilters
		want    bool
	}{
		{"empty matches all", models.SearchFilters{}, true},
		{"empty matches none", models.SearchFilters{OnEmptyFilter: models.EmptyFilterReturnNone}, false},
		{"string prefix", models.SearchFilters{String: map[string]string{"name": "ada"}}, true},
		{"string not prefix", models.SearchFilters{String: map[string]string{"name": "love"}}, false},
		{"fuzzy", models.SearchFilters{Fuzzy: map[string]string{"name": "LOVE"}}, true},
		{"range inside", models.SearchFilters{Range: map[string]models.RangeFilter{"age": {Low: 30, High: 40}}}, true},
		{"range outside", models.SearchFilters{Range: map[string]models.RangeFilter{"age": {High: 30}}}, false},
		{"range missing field", models.SearchFilters{Range: map[string]models.RangeFilter{"height": {Low: 1}}}, false},
		{"equal number and text", models.SearchFilters{Equal: map[string]any{"count": 12}}, true},
		{"not equal", models.SearchFilters{NotEqual: map[string]any{"name": "Grace"}}, true},
		{"empty", models.SearchFilters{Empty: map[string]any{"email": true, "missing": true}}, true},
		{"not empty", models.SearchFilters{NotEmpty: map[string]any{"email": true}}, false},
		{"one of", models.SearchFilters{OneOf: map[string][]any{"age": {35, 36}}}, true},
		{"contains", models.SearchFilters{Contains: map[string][]any{"tags": {"poetry"}}}, true},
		{"contains missing", models.SearchFilters{Contains: map[string][]any{"tags": {"poetry", "music"}}}, false},
		{
			name: "all conditions must hold",
			filters: models.SearchFilters{
				String: map[string]string{"name": "ada"},
				Equal:  map[string]any{"age": 40},
			},
			want: false,
		},
		{
			name: "any condition with allOr",
			filters: models.SearchFilters{
				AllOr:  true,
				String: map[string]string{"name": "ada"},
				Equal:  map[string]any{"age": 40},
			},
			want: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matchFilters(tc.filters, lookup))
		})
	}
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, compareValues(2, 10))
	assert.Equal(t, 1, compareValues("b", "a"))
	assert.Equal(t, 0, compareValues(3.0, "3"))
	assert.Equal(t, -1, compareValues(nil, 0))
}
