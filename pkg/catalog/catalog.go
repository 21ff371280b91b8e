// Package catalog maps step and trigger kinds to their static schema fragments.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidInputs indicates inputs that do not satisfy a fragment's input schema.
var ErrInvalidInputs = errors.New("invalid inputs")

// Catalog holds the schema fragments of every registered step and trigger kind.
type Catalog struct {
	mu       sync.RWMutex
	actions  map[models.AutomationActionStepID]models.StepSchema
	triggers map[models.AutomationTriggerStepID]models.StepSchema
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		actions:  make(map[models.AutomationActionStepID]models.StepSchema),
		triggers: make(map[models.AutomationTriggerStepID]models.StepSchema),
	}
}

// RegisterAction adds or replaces the fragment of an action step kind.
func (c *Catalog) RegisterAction(id models.AutomationActionStepID, schema models.StepSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actions[id] = schema
}

// RegisterTrigger adds or replaces the fragment of a trigger kind.
func (c *Catalog) RegisterTrigger(id models.AutomationTriggerStepID, schema models.StepSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.triggers[id] = schema
}

// LookupStep returns the fragment of an action step kind.
func (c *Catalog) LookupStep(id models.AutomationActionStepID) (models.StepSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	schema, ok := c.actions[id]
	if !ok {
		return models.StepSchema{}, false
	}

	return clone(schema), true
}

// LookupTrigger returns the fragment of a trigger kind.
func (c *Catalog) LookupTrigger(id models.AutomationTriggerStepID) (models.StepSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	schema, ok := c.triggers[id]
	if !ok {
		return models.StepSchema{}, false
	}

	return clone(schema), true
}

// Step returns the fragment of an action step kind, or the zero fragment.
func (c *Catalog) Step(id models.AutomationActionStepID) models.StepSchema {
	schema, _ := c.LookupStep(id)

	return schema
}

// Trigger returns the fragment of a trigger kind, or the zero fragment.
func (c *Catalog) Trigger(id models.AutomationTriggerStepID) models.StepSchema {
	schema, _ := c.LookupTrigger(id)

	return schema
}

// Entry is a catalog listing item.
type Entry struct {
	models.StepSchema

	StepID string `json:"stepId"`
}

// Steps lists the action fragments ordered by kind.
func (c *Catalog) Steps() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.actions))
	for id, schema := range c.actions {
		entries = append(entries, Entry{StepSchema: clone(schema), StepID: string(id)})
	}

	return sorted(entries)
}

// Triggers lists the trigger fragments ordered by kind.
func (c *Catalog) Triggers() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.triggers))
	for id, schema := range c.triggers {
		entries = append(entries, Entry{StepSchema: clone(schema), StepID: string(id)})
	}

	return sorted(entries)
}

// ValidateInputs checks inputs against the input schema of a fragment. A fragment without
// an input schema accepts anything.
func ValidateInputs(schema models.StepSchema, inputs any) error {
	if schema.Schema.Inputs == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.Schema.Inputs),
		gojsonschema.NewGoLoader(inputs),
	)
	if err != nil {
		return fmt.Errorf("failed to validate inputs: %w", err)
	}

	if !result.Valid() {
		var violations []string
		for _, violation := range result.Errors() {
			violations = append(violations, violation.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidInputs, strings.Join(violations, "; "))
	}

	return nil
}

func clone(schema models.StepSchema) models.StepSchema {
	schema.Features = maps.Clone(schema.Features)

	return schema
}

func sorted(entries []Entry) []Entry {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.StepID, b.StepID)
	})

	return entries
}
