package models

// StepType classifies a catalog entry.
type StepType string

const (
	StepTypeAction  StepType = "ACTION"
	StepTypeLogic   StepType = "LOGIC"
	StepTypeTrigger StepType = "TRIGGER"
)

// StepSchema is the static part of a step or trigger node, supplied by the catalog and
// merged into every node of that kind.
type StepSchema struct {
	Name        string            `json:"name"`
	Tagline     string            `json:"tagline,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Description string            `json:"description,omitempty"`
	Type        StepType          `json:"type"`
	Event       string            `json:"event,omitempty"`
	Internal    bool              `json:"internal,omitempty"`
	Features    map[string]bool   `json:"features,omitempty"`
	Schema      InputOutputSchema `json:"schema"`
}

// InputOutputSchema holds the JSON schemas for a node's inputs and outputs.
type InputOutputSchema struct {
	Inputs  *JSONSchema `json:"inputs,omitempty"`
	Outputs *JSONSchema `json:"outputs,omitempty"`
}

// JSONSchema represents a JSON Schema for input validation
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        string               `json:"type,omitempty"`
	Description string               `json:"description,omitempty"`
	Title       string               `json:"title,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	MinItems    *int                 `json:"minItems,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}
