package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/tidwall/gjson"
)

var (
	bindingPattern = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)
	indexPattern   = regexp.MustCompile(`\[(\d+)\]`)
)

// runContext is the data a binding can read during one run: the trigger outputs, every
// step's outputs by position (0 is the trigger) and by identity, and the current loop item.
type runContext struct {
	Trigger   map[string]any            `json:"trigger"`
	Steps     []map[string]any          `json:"steps"`
	StepsByID map[string]map[string]any `json:"stepsById"`
	Loop      map[string]any            `json:"loop,omitempty"`

	doc string
}

func newRunContext(trigger map[string]any) *runContext {
	return &runContext{
		Trigger:   trigger,
		Steps:     []map[string]any{trigger},
		StepsByID: make(map[string]map[string]any),
	}
}

func (c *runContext) record(id string, outputs map[string]any) {
	c.Steps = append(c.Steps, outputs)
	c.StepsByID[id] = outputs
	c.doc = ""
}

func (c *runContext) setLoopItem(item any, index int) {
	c.Loop = map[string]any{"currentItem": item, "index": index}
	c.doc = ""
}

func (c *runContext) clearLoop() {
	c.Loop = nil
	c.doc = ""
}

// document returns the context as JSON. Recorded outputs are already JSON round-tripped.
func (c *runContext) document() string {
	if c.doc == "" {
		data, err := json.Marshal(c)
		if err != nil {
			return "{}"
		}

		c.doc = string(data)
	}

	return c.doc
}

// lookup reads a binding path such as "trigger.row.name" or "steps[1].rows".
func (c *runContext) lookup(path string) any {
	path = strings.TrimSpace(path)
	path = indexPattern.ReplaceAllString(path, ".$1")

	result := gjson.Get(c.document(), path)
	if !result.Exists() {
		return nil
	}

	return result.Value()
}

// lookupKey reads a filter key, which is either a bare path or a single binding.
func (c *runContext) lookupKey(key string) any {
	if match := bindingPattern.FindStringSubmatch(key); match != nil && match[0] == strings.TrimSpace(key) {
		return c.lookup(match[1])
	}

	return c.lookup(key)
}

// resolve replaces bindings inside value. A string that is exactly one binding takes the
// bound value with its type; bindings inside longer text are rendered as text.
func (c *runContext) resolve(value any) any {
	switch v := value.(type) {
	case string:
		match := bindingPattern.FindStringSubmatch(v)
		if match == nil {
			return v
		}

		if match[0] == strings.TrimSpace(v) {
			return c.lookup(match[1])
		}

		return bindingPattern.ReplaceAllStringFunc(v, func(binding string) string {
			return stringify(c.lookup(bindingPattern.FindStringSubmatch(binding)[1]))
		})
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = c.resolve(item)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = c.resolve(item)
		}

		return resolved
	default:
		return v
	}
}

// resolveInputs returns a copy of the step inputs with every binding resolved.
func (c *runContext) resolveInputs(inputs models.StepInputs) (models.StepInputs, error) {
	var raw any
	if err := roundTrip(inputs, &raw); err != nil {
		return nil, err
	}

	data, err := json.Marshal(c.resolve(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolved inputs: %w", err)
	}

	return models.DecodeStepInputs(inputs.ActionStepID(), data)
}

// resolveFilters resolves bindings in filter values. Keys are resolved on lookup.
func (c *runContext) resolveFilters(filters models.SearchFilters) (models.SearchFilters, error) {
	var raw any
	if err := roundTrip(filters, &raw); err != nil {
		return models.SearchFilters{}, err
	}

	var resolved models.SearchFilters
	if err := roundTrip(c.resolve(raw), &resolved); err != nil {
		return models.SearchFilters{}, err
	}

	return resolved, nil
}

func roundTrip(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", from, err)
	}

	if err := json.Unmarshal(data, to); err != nil {
		return fmt.Errorf("failed to decode %T: %w", to, err)
	}

	return nil
}

func toMap(value any) (map[string]any, error) {
	out := map[string]any{}
	if value == nil {
		return out, nil
	}

	if err := roundTrip(value, &out); err != nil {
		return nil, err
	}

	if out == nil {
		out = map[string]any{}
	}

	return out, nil
}
