package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config is the ambient test configuration: the owning application and the persistence
// collaborator that assigns an automation its durable identity.
type Config interface {
	AppID() string
	CreateAutomation(ctx context.Context, automation *models.Automation) (*models.Automation, error)
}

// Harness executes a persisted automation against simulated trigger outputs.
type Harness interface {
	TestAutomation(
		ctx context.Context,
		cfg Config,
		automation *models.Automation,
		outputs models.TriggerOutputs,
	) (*TestResponse, error)
}

// TestResponse holds the raw harness results. Body.Steps[0] echoes the trigger.
type TestResponse struct {
	Body models.AutomationResults `json:"body"`
}

// AutomationBuilder owns one trigger and the top-level steps of an automation, and runs it.
type AutomationBuilder struct {
	*Steps[*AutomationBuilder]

	config  Config
	harness Harness
	logger  *slog.Logger
	tracer  trace.Tracer

	automation     models.Automation
	triggerOutputs models.TriggerOutputs
	ran            bool
}

// New returns a builder for one automation owned by cfg's application.
func New(cfg Config, harness Harness, opts ...Option) *AutomationBuilder {
	o := newOptions(opts)

	name := o.name
	if name == "" {
		name = "Test Automation " + uuid.NewString()
	}

	b := &AutomationBuilder{
		config:  cfg,
		harness: harness,
		logger:  o.logger,
		tracer:  o.tracer,
		automation: models.Automation{
			Name:  name,
			Type:  models.AutomationTypeAutomation,
			AppID: cfg.AppID(),
		},
	}
	b.Steps = newSteps(b, o.catalog, o.newID)

	return b
}

func (b *AutomationBuilder) RowSaved(
	inputs models.RowCreatedTriggerInputs,
	outputs models.RowCreatedTriggerOutputs,
) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

func (b *AutomationBuilder) RowUpdated(
	inputs models.RowUpdatedTriggerInputs,
	outputs models.RowUpdatedTriggerOutputs,
) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

func (b *AutomationBuilder) RowDeleted(
	inputs models.RowDeletedTriggerInputs,
	outputs models.RowDeletedTriggerOutputs,
) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

// AppAction sets an app action trigger. The fields declaration is optional.
func (b *AutomationBuilder) AppAction(
	outputs models.AppActionTriggerOutputs,
	inputs ...models.AppActionTriggerInputs,
) *AutomationBuilder {
	var in models.AppActionTriggerInputs
	if len(inputs) > 0 {
		in = inputs[0]
	}

	return b.trigger(in, outputs)
}

func (b *AutomationBuilder) Cron(
	inputs models.CronTriggerInputs,
	outputs models.CronTriggerOutputs,
) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

func (b *AutomationBuilder) Webhook(
	inputs models.WebhookTriggerInputs,
	outputs models.WebhookTriggerOutputs,
) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

// Trigger sets a trigger of any kind. The kind is taken from the inputs.
func (b *AutomationBuilder) Trigger(inputs models.TriggerInputs, outputs models.TriggerOutputs) *AutomationBuilder {
	return b.trigger(inputs, outputs)
}

func (b *AutomationBuilder) trigger(inputs models.TriggerInputs, outputs models.TriggerOutputs) *AutomationBuilder {
	if b.err != nil {
		return b
	}

	stepID := inputs.TriggerStepID()

	if current := b.automation.Definition.Trigger; current != nil {
		b.err = fmt.Errorf("%w: %s trigger is configured, cannot add %s", ErrTriggerAlreadySet, current.StepID, stepID)

		return b
	}

	b.automation.Definition.Trigger = &models.AutomationTrigger{
		StepSchema: b.catalog.Trigger(stepID),
		ID:         b.newID(),
		StepID:     stepID,
		Inputs:     inputs,
	}
	b.triggerOutputs = outputs

	return b
}

// Err reports the configuration error recorded on the builder, if any.
func (b *AutomationBuilder) Err() error {
	return b.err
}

// Automation returns a snapshot of the automation as it would be submitted.
func (b *AutomationBuilder) Automation() models.Automation {
	automation := b.automation
	automation.Definition.Steps = b.Build()

	return automation
}

// Run persists the automation, executes it with the configured trigger outputs and
// returns the results without the trigger echo. Run succeeds at most once per builder.
func (b *AutomationBuilder) Run(ctx context.Context) (*models.AutomationResults, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.automation.Definition.Trigger == nil {
		return nil, ErrTriggerMissing
	}

	if b.ran {
		return nil, ErrAlreadyRun
	}

	b.ran = true

	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "builder.run",
		attribute.String(otelhelper.AutomationNameKey, b.automation.Name),
		attribute.String(otelhelper.AppIDKey, b.automation.AppID),
		attribute.String(otelhelper.TriggerTypeKey, string(b.automation.Definition.Trigger.StepID)),
	)
	defer span.End()

	automation := b.Automation()

	created, err := b.config.CreateAutomation(ctx, &automation)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.AutomationIDKey, created.ID))
	b.logger.DebugContext(ctx, "automation created", "automation_id", created.ID, "steps", created.Definition.StepCount())

	response, err := b.harness.TestAutomation(ctx, b.config, created, b.triggerOutputs)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if response == nil {
		otelhelper.SetError(span, ErrEmptyResponse)

		return nil, ErrEmptyResponse
	}

	results := processResults(response.Body)

	b.logger.DebugContext(ctx, "automation tested", "automation_id", created.ID, "results", len(results.Steps))

	return &results, nil
}

// processResults drops the trigger echo, which the harness reports as the first step.
func processResults(raw models.AutomationResults) models.AutomationResults {
	steps := []models.StepResult{}
	if len(raw.Steps) > 1 {
		steps = append(steps, raw.Steps[1:]...)
	}

	return models.AutomationResults{
		Trigger: raw.Trigger,
		Steps:   steps,
	}
}
