// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestAutomation creates a test Automation with default values that can be overridden.
// The default definition is an app action trigger followed by a create row and a server log step.
func CreateTestAutomation(overrides ...func(*models.Automation)) *models.Automation {
	automation := &models.Automation{
		ID:    uuid.New().String(),
		Name:  "Test Automation",
		Type:  models.AutomationTypeAutomation,
		AppID: "app_test",
		Definition: models.AutomationDefinition{
			Trigger: &models.AutomationTrigger{
				ID:     uuid.New().String(),
				StepID: models.TriggerApp,
				Inputs: models.AppActionTriggerInputs{Fields: map[string]string{"name": "string"}},
			},
			Steps: []*models.AutomationStep{
				CreateTestStep(models.CreateRowStepInputs{Row: models.Row{"tableId": "ta_users", "name": "{{ trigger.fields.name }}"}}),
				CreateTestStep(models.ServerLogStepInputs{Text: "created {{ steps.1.id }}"}),
			},
		},
	}

	for _, override := range overrides {
		override(automation)
	}

	return automation
}

// CreateTestStep creates a step of the kind the inputs belong to, with a fresh ID.
func CreateTestStep(inputs models.StepInputs) *models.AutomationStep {
	return &models.AutomationStep{
		ID:     uuid.New().String(),
		StepID: inputs.ActionStepID(),
		Inputs: inputs,
	}
}

// WithName sets the automation name.
func WithName(name string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Name = name
	}
}

// WithAppID sets the owning application.
func WithAppID(appID string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.AppID = appID
	}
}

// WithTrigger replaces the trigger with one of the kind the inputs belong to.
func WithTrigger(inputs models.TriggerInputs) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Definition.Trigger = &models.AutomationTrigger{
			ID:     uuid.New().String(),
			StepID: inputs.TriggerStepID(),
			Inputs: inputs,
		}
	}
}

// WithSteps replaces the steps of the definition.
func WithSteps(steps ...*models.AutomationStep) func(*models.Automation) {
	return func(a *models.Automation) {
		a.Definition.Steps = steps
	}
}
