package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/autoflow/pkg/engine"
	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Automation stores automations and runs them through the engine on demand.
type Automation struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// NewAutomation creates a new automation service. The publisher may be nil, in which
// case no lifecycle events are emitted.
func NewAutomation(
	persistence persistence.Persistence,
	eng *engine.Engine,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Automation {
	return &Automation{
		persistence: persistence,
		engine:      eng,
		publisher:   publisher,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "automation_service"),
		now:         time.Now,
	}
}

// HealthCheck checks the health of the persistence layer.
func (a *Automation) HealthCheck(ctx context.Context) (string, bool) {
	if a.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := a.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns the stored automations, restricted to one application when appID is set.
func (a *Automation) List(ctx context.Context, appID string) ([]*models.Automation, error) {
	automations, err := a.persistence.Automations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}

	appID = strings.TrimSpace(appID)
	if appID == "" {
		return automations, nil
	}

	return slices.DeleteFunc(automations, func(automation *models.Automation) bool {
		return automation.AppID != appID
	}), nil
}

// FetchByID retrieves an automation by its ID.
func (a *Automation) FetchByID(ctx context.Context, id string) (*models.Automation, error) {
	automation, err := a.persistence.AutomationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if automation == nil {
		return nil, ErrAutomationNotFound
	}

	return automation, nil
}

// Create validates and stores a new automation, assigning its ID and timestamps.
func (a *Automation) Create(ctx context.Context, automation *models.Automation) (*models.Automation, error) {
	if err := a.validate(automation); err != nil {
		return nil, err
	}

	if automation.ID != "" {
		existing, err := a.persistence.AutomationByID(ctx, automation.ID)
		if err != nil && !persistence.IsAutomationNotFound(err) {
			return nil, fmt.Errorf("failed to check automation: %w", err)
		}

		if existing != nil {
			return nil, &ServiceError{
				Op:      "Create",
				Code:    "AUTOMATION_EXISTS",
				Message: fmt.Sprintf("automation '%s' already exists", automation.ID),
				Err:     ErrAutomationExists,
			}
		}
	} else {
		automation.ID = uuid.NewString()
	}

	automation.Type = cmp.Or(automation.Type, models.AutomationTypeAutomation)

	now := a.now().UTC()
	automation.CreatedAt = now
	automation.UpdatedAt = now

	if err := a.persistence.SaveAutomation(ctx, automation); err != nil {
		return nil, fmt.Errorf("failed to save automation: %w", err)
	}

	a.logger.InfoContext(ctx, "Automation created",
		"automation_id", automation.ID,
		"app_id", automation.AppID,
		"steps", automation.Definition.StepCount(),
	)

	a.publish(ctx, automation.ID, events.NewAutomationCreated(automation))

	return automation, nil
}

// Delete removes an automation.
func (a *Automation) Delete(ctx context.Context, id string) error {
	automation, err := a.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if err := a.persistence.DeleteAutomation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	a.logger.InfoContext(ctx, "Automation deleted", "automation_id", id)

	a.publish(ctx, id, events.AutomationDeleted{
		BaseEvent: events.NewBaseEvent(events.AutomationDeletedEvent, id, automation.AppID),
	})

	return nil
}

// Test runs a stored automation once with simulated trigger outputs. The results keep the
// trigger echo as their first step.
func (a *Automation) Test(
	ctx context.Context,
	id string,
	outputs models.TriggerOutputs,
) (*models.AutomationResults, error) {
	automation, err := a.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if automation.Disabled {
		return nil, &ServiceError{
			Op:      "Test",
			Code:    "AUTOMATION_DISABLED",
			Message: fmt.Sprintf("automation '%s' is disabled", id),
			Err:     ErrAutomationDisabled,
		}
	}

	if outputs != nil && outputs.OutputsOf() != automation.Definition.Trigger.StepID {
		return nil, NewValidationError(
			"Test",
			"TRIGGER_MISMATCH",
			fmt.Sprintf("%s outputs given for a %s trigger", outputs.OutputsOf(), automation.Definition.Trigger.StepID),
			ErrTriggerMismatch,
		)
	}

	started := a.now()

	results, err := a.engine.Execute(ctx, automation, outputs)
	if err != nil {
		a.logger.ErrorContext(ctx, "Automation test failed", "automation_id", id, "error", err)

		a.publish(ctx, id, events.AutomationTestFailed{
			BaseEvent: events.NewBaseEvent(events.AutomationTestFailedEvent, id, automation.AppID),
			Error:     err.Error(),
		})

		return nil, err
	}

	a.publish(ctx, id, events.NewAutomationTested(automation, results, a.now().Sub(started)))

	return results, nil
}

func (a *Automation) validate(automation *models.Automation) error {
	if automation == nil {
		return ErrAutomationNil
	}

	if strings.TrimSpace(automation.AppID) == "" {
		return NewValidationError("Create", "EMPTY_APP_ID", "app ID cannot be empty", ErrEmptyAppID)
	}

	if automation.Definition.Trigger == nil {
		return NewValidationError("Create", "TRIGGER_REQUIRED", "automation must have a trigger", ErrTriggerRequired)
	}

	if err := a.validator.Struct(automation); err != nil {
		return NewValidationError("Create", "INVALID_AUTOMATION", err.Error(), ErrInvalidRequest)
	}

	if err := a.engine.Validate(automation); err != nil {
		return NewValidationError("Create", "INVALID_DEFINITION", err.Error(), err)
	}

	return nil
}

func (a *Automation) publish(ctx context.Context, key string, event eventbus.Event) {
	if a.publisher == nil {
		return
	}

	if err := a.publisher.Publish(ctx, key, event); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"automation_id", key,
			"error", err,
		)
	}
}
