// Package web provides the HTTP API that stores automations and runs them on demand.
package web

import "github.com/dukex/autoflow/pkg/models"

// CreateAutomationRequest represents the request body for creating a new automation.
type CreateAutomationRequest struct {
	ID         string                      `json:"id,omitempty"`
	Name       string                      `json:"name"       validate:"required"`
	AppID      string                      `json:"appId"      validate:"required"`
	Definition models.AutomationDefinition `json:"definition"`
	Disabled   bool                        `json:"disabled,omitempty"`
}

// ListAutomationsResponse represents the response of the automation listing.
type ListAutomationsResponse struct {
	Automations []*models.Automation `json:"automations"`
	TotalCount  int                  `json:"total_count"`
}

// TestAutomationResponse holds the raw results of a test run. Body.Steps[0] echoes the trigger.
type TestAutomationResponse struct {
	Body models.AutomationResults `json:"body"`
}
