package models

// EmptyFilterOption decides how a filter set with no conditions matches.
type EmptyFilterOption string

const (
	EmptyFilterReturnAll  EmptyFilterOption = "all"
	EmptyFilterReturnNone EmptyFilterOption = "none"
)

// RangeFilter bounds a value. A nil bound is open.
type RangeFilter struct {
	Low  any `json:"low,omitempty"`
	High any `json:"high,omitempty"`
}

// SearchFilters is a structured filter expression. Keys are field names, or bindings such
// as "{{ trigger.row.name }}" when used as branch conditions. Conditions are combined with
// AND unless AllOr is set.
type SearchFilters struct {
	AllOr         bool                   `json:"allOr,omitempty"`
	OnEmptyFilter EmptyFilterOption      `json:"onEmptyFilter,omitempty"`
	String        map[string]string      `json:"string,omitempty"`
	Fuzzy         map[string]string      `json:"fuzzy,omitempty"`
	Range         map[string]RangeFilter `json:"range,omitempty"`
	Equal         map[string]any         `json:"equal,omitempty"`
	NotEqual      map[string]any         `json:"notEqual,omitempty"`
	Empty         map[string]any         `json:"empty,omitempty"`
	NotEmpty      map[string]any         `json:"notEmpty,omitempty"`
	OneOf         map[string][]any       `json:"oneOf,omitempty"`
	Contains      map[string][]any       `json:"contains,omitempty"`
}

// IsEmpty reports whether the filter set has no conditions.
func (f SearchFilters) IsEmpty() bool {
	return len(f.String) == 0 &&
		len(f.Fuzzy) == 0 &&
		len(f.Range) == 0 &&
		len(f.Equal) == 0 &&
		len(f.NotEqual) == 0 &&
		len(f.Empty) == 0 &&
		len(f.NotEmpty) == 0 &&
		len(f.OneOf) == 0 &&
		len(f.Contains) == 0
}
