// Package models defines the automation definitions, step and trigger payloads, and run
// results shared by the builder, the engine and the persistence layer.
package models

import "time"

// AutomationTypeAutomation is the document type of every automation.
const AutomationTypeAutomation = "automation"

// Automation is a named workflow owned by an application. Its definition holds exactly one
// trigger and an ordered sequence of steps.
type Automation struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"       validate:"required"`
	Type       string               `json:"type"`
	AppID      string               `json:"appId"      validate:"required"`
	Definition AutomationDefinition `json:"definition"`
	Disabled   bool                 `json:"disabled,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// AutomationDefinition is the graph of an automation.
type AutomationDefinition struct {
	Trigger *AutomationTrigger `json:"trigger" validate:"required"`
	Steps   []*AutomationStep  `json:"steps"`
}

// StepCount returns the number of steps in the definition, nested branch steps included.
func (d AutomationDefinition) StepCount() int {
	return countSteps(d.Steps)
}

func countSteps(steps []*AutomationStep) int {
	count := 0

	for _, step := range steps {
		count++

		if branch, ok := step.Inputs.(BranchStepInputs); ok {
			for _, children := range branch.Children {
				count += countSteps(children)
			}
		}
	}

	return count
}
