// Package builder assembles automation definitions with a fluent API and runs them through an
// execution harness.
package builder

import (
	"slices"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/models"
)

// Steps accumulates an ordered list of step nodes. It is embedded by StepBuilder and
// AutomationBuilder, and every method returns the embedding builder so calls chain.
type Steps[B any] struct {
	self    B
	catalog *catalog.Catalog
	newID   IDGenerator
	steps   []*models.AutomationStep

	// err stops accumulation once the owning builder is in a failed state.
	err error
}

func newSteps[B any](self B, cat *catalog.Catalog, newID IDGenerator) *Steps[B] {
	return &Steps[B]{
		self:    self,
		catalog: cat,
		newID:   newID,
		steps:   []*models.AutomationStep{},
	}
}

func (s *Steps[B]) CreateRow(inputs models.CreateRowStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) UpdateRow(inputs models.UpdateRowStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) DeleteRow(inputs models.DeleteRowStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) SendSmtpEmail(inputs models.SmtpEmailStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) ExecuteQuery(inputs models.ExecuteQueryStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) QueryRows(inputs models.QueryRowsStepInputs) B {
	return s.Step(inputs)
}

// Loop repeats the step added after it once per item of the binding.
func (s *Steps[B]) Loop(inputs models.LoopStepInputs) B {
	return s.Step(inputs)
}

func (s *Steps[B]) ServerLog(inputs models.ServerLogStepInputs) B {
	return s.Step(inputs)
}

// Step appends a node for any step kind. The kind is taken from the inputs.
func (s *Steps[B]) Step(inputs models.StepInputs) B {
	if s.err != nil {
		return s.self
	}

	stepID := inputs.ActionStepID()

	s.steps = append(s.steps, &models.AutomationStep{
		StepSchema: s.catalog.Step(stepID),
		ID:         s.newID(),
		StepID:     stepID,
		Inputs:     inputs,
	})

	return s.self
}

// Branch appends one branch node. Each definition is configured on its own fresh
// StepBuilder, in the order given, and the node keeps that order in its branch list.
func (s *Steps[B]) Branch(branches ...BranchDefinition) B {
	if s.err != nil {
		return s.self
	}

	inputs := models.BranchStepInputs{
		Branches: make([]models.Branch, 0, len(branches)),
		Children: make(map[string][]*models.AutomationStep, len(branches)),
	}

	for _, branch := range branches {
		child := newStepBuilder(s.catalog, s.newID)
		if branch.Steps != nil {
			branch.Steps(child)
		}

		inputs.Branches = append(inputs.Branches, models.Branch{
			Name:      branch.Name,
			Condition: branch.Condition,
		})
		inputs.Children[branch.Name] = child.Build()
	}

	return s.Step(inputs)
}

// Build returns the accumulated steps in call order.
func (s *Steps[B]) Build() []*models.AutomationStep {
	return slices.Clone(s.steps)
}

// BranchDefinition describes one named path of a branch node. Steps configures the
// path's own step list and may be nil for an empty path.
type BranchDefinition struct {
	Name      string
	Condition models.SearchFilters
	Steps     func(*StepBuilder)
}

// On is shorthand for a BranchDefinition.
func On(name string, condition models.SearchFilters, steps func(*StepBuilder)) BranchDefinition {
	return BranchDefinition{Name: name, Condition: condition, Steps: steps}
}

// StepBuilder builds a plain step list, such as the steps of one branch.
type StepBuilder struct {
	*Steps[*StepBuilder]
}

// NewStepBuilder returns an empty step builder. Only the catalog and identity generator
// options apply.
func NewStepBuilder(opts ...Option) *StepBuilder {
	o := newOptions(opts)

	return newStepBuilder(o.catalog, o.newID)
}

func newStepBuilder(cat *catalog.Catalog, newID IDGenerator) *StepBuilder {
	b := &StepBuilder{}
	b.Steps = newSteps(b, cat, newID)

	return b
}
