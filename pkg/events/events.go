// Package events defines event types and structures for automation lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every automation event.
const Topic = "autoflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AutomationCreatedEvent    EventType = "automation.created"
	AutomationDeletedEvent    EventType = "automation.deleted"
	AutomationTestedEvent     EventType = "automation.tested"
	AutomationTestFailedEvent EventType = "automation.test_failed"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	AutomationID string         `json:"automation_id"`
	AppID        string         `json:"app_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a base event for an automation.
func NewBaseEvent(eventType EventType, automationID, appID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automationID,
		AppID:        appID,
	}
}

type AutomationCreated struct {
	BaseEvent

	Name      string `json:"name"`
	TriggerID string `json:"trigger_id"`
	Trigger   string `json:"trigger"`
	StepCount int    `json:"step_count"`
}

func (a AutomationCreated) GetType() EventType {
	return AutomationCreatedEvent
}

// NewAutomationCreated describes a stored automation.
func NewAutomationCreated(automation *models.Automation) AutomationCreated {
	event := AutomationCreated{
		BaseEvent: NewBaseEvent(AutomationCreatedEvent, automation.ID, automation.AppID),
		Name:      automation.Name,
		StepCount: automation.Definition.StepCount(),
	}

	if trigger := automation.Definition.Trigger; trigger != nil {
		event.TriggerID = trigger.ID
		event.Trigger = string(trigger.StepID)
	}

	return event
}

type AutomationDeleted struct {
	BaseEvent
}

func (a AutomationDeleted) GetType() EventType {
	return AutomationDeletedEvent
}

type AutomationTested struct {
	BaseEvent

	Steps    int           `json:"steps"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
}

func (a AutomationTested) GetType() EventType {
	return AutomationTestedEvent
}

// NewAutomationTested summarizes a test run. Success holds when every step after the trigger succeeded.
func NewAutomationTested(automation *models.Automation, results *models.AutomationResults, duration time.Duration) AutomationTested {
	event := AutomationTested{
		BaseEvent: NewBaseEvent(AutomationTestedEvent, automation.ID, automation.AppID),
		Success:   true,
		Duration:  duration,
	}

	if results == nil || len(results.Steps) == 0 {
		return event
	}

	for _, step := range results.Steps[1:] {
		event.Steps++

		if !step.Success() && step.StepID != string(models.ActionBranch) {
			event.Success = false
		}
	}

	return event
}

type AutomationTestFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (a AutomationTestFailed) GetType() EventType {
	return AutomationTestFailedEvent
}
