// Package engine executes automation definitions once against a simulated trigger payload.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/otelhelper"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultIterationsLimit = 1000

// Run describes the automation a step is executed for.
type Run struct {
	AutomationID string
	AppID        string
}

// StepFunc executes one step with its bindings already resolved and returns the step outputs.
type StepFunc func(ctx context.Context, run Run, inputs models.StepInputs) (map[string]any, error)

type Engine struct {
	catalog  *catalog.Catalog
	logger   *slog.Logger
	tracer   trace.Tracer
	rows     RowStore
	mailer   Mailer
	queries  QueryRunner
	handlers map[models.AutomationActionStepID]StepFunc
	now      func() time.Time
}

type Option func(*Engine)

func WithRowStore(rows RowStore) Option {
	return func(e *Engine) {
		if rows != nil {
			e.rows = rows
		}
	}
}

func WithMailer(mailer Mailer) Option {
	return func(e *Engine) {
		if mailer != nil {
			e.mailer = mailer
		}
	}
}

func WithQueryRunner(queries QueryRunner) Option {
	return func(e *Engine) {
		e.queries = queries
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithClock replaces the clock used for cron timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an engine with executors for every built-in action kind. Branch and loop
// steps are handled by the engine itself.
func New(cat *catalog.Catalog, logger *slog.Logger, opts ...Option) *Engine {
	if cat == nil {
		cat = catalog.Builtin()
	}

	e := &Engine{
		catalog:  cat,
		logger:   logger.With("module", "engine"),
		tracer:   otel.Tracer("github.com/dukex/autoflow/pkg/engine"),
		rows:     NewMemoryRows(),
		mailer:   NewOutbox(),
		handlers: make(map[models.AutomationActionStepID]StepFunc),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.Register(models.ActionCreateRow, e.createRow)
	e.Register(models.ActionUpdateRow, e.updateRow)
	e.Register(models.ActionDeleteRow, e.deleteRow)
	e.Register(models.ActionSendEmailSMTP, e.sendEmail)
	e.Register(models.ActionExecuteQuery, e.executeQuery)
	e.Register(models.ActionQueryRows, e.queryRows)
	e.Register(models.ActionServerLog, e.serverLog)

	return e
}

// Register adds or replaces the executor of an action step kind.
func (e *Engine) Register(stepID models.AutomationActionStepID, fn StepFunc) {
	e.handlers[stepID] = fn
}

// Validate reports every problem that keeps the automation from being executed. The
// returned error matches ErrInvalidDefinition.
func (e *Engine) Validate(automation *models.Automation) error {
	if automation == nil {
		return invalid("automation is nil")
	}

	trigger := automation.Definition.Trigger
	if trigger == nil {
		return invalid("automation %s has no trigger", automation.ID)
	}

	var errs []error

	if schema, ok := e.catalog.LookupTrigger(trigger.StepID); !ok {
		errs = append(errs, invalid("unknown trigger %q", trigger.StepID))
	} else if err := catalog.ValidateInputs(schema, orEmpty(trigger.Inputs)); err != nil {
		errs = append(errs, invalid("trigger %s: %v", trigger.ID, err))
	}

	if trigger.Inputs != nil && trigger.Inputs.TriggerStepID() != trigger.StepID {
		errs = append(errs, invalid("trigger %s: inputs do not belong to %s", trigger.ID, trigger.StepID))
	}

	if cronInputs, ok := trigger.Inputs.(models.CronTriggerInputs); ok {
		if _, err := cron.ParseStandard(cronInputs.Cron); err != nil {
			errs = append(errs, invalid("trigger %s: cron %q: %v", trigger.ID, cronInputs.Cron, err))
		}
	}

	seen := map[string]bool{trigger.ID: true}
	errs = append(errs, e.validateSteps(automation.Definition.Steps, seen)...)

	return errors.Join(errs...)
}

func (e *Engine) validateSteps(steps []*models.AutomationStep, seen map[string]bool) []error {
	var errs []error

	for i, step := range steps {
		if step == nil {
			errs = append(errs, invalid("step %d is nil", i))

			continue
		}

		if seen[step.ID] {
			errs = append(errs, invalid("duplicate step id %q", step.ID))
		}

		seen[step.ID] = true

		schema, ok := e.catalog.LookupStep(step.StepID)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %w: %q", ErrInvalidDefinition, ErrUnknownStep, step.StepID))

			continue
		}

		if _, handled := e.handlers[step.StepID]; !handled && step.StepID != models.ActionBranch && step.StepID != models.ActionLoop {
			errs = append(errs, fmt.Errorf("%w: %w: %q", ErrInvalidDefinition, ErrUnknownStep, step.StepID))

			continue
		}

		if step.Inputs == nil || step.Inputs.ActionStepID() != step.StepID {
			errs = append(errs, invalid("step %s: inputs do not belong to %s", step.ID, step.StepID))

			continue
		}

		if err := catalog.ValidateInputs(schema, step.Inputs); err != nil {
			errs = append(errs, invalid("step %s: %v", step.ID, err))
		}

		switch inputs := step.Inputs.(type) {
		case models.BranchStepInputs:
			errs = append(errs, e.validateBranch(step.ID, inputs, seen)...)
		case models.LoopStepInputs:
			if i+1 >= len(steps) || steps[i+1] == nil {
				errs = append(errs, invalid("loop %s has no step to repeat", step.ID))
			} else if next := steps[i+1].StepID; next == models.ActionLoop || next == models.ActionBranch {
				errs = append(errs, invalid("loop %s cannot repeat a %s step", step.ID, next))
			}
		}
	}

	return errs
}

func (e *Engine) validateBranch(id string, inputs models.BranchStepInputs, seen map[string]bool) []error {
	if len(inputs.Branches) == 0 {
		return []error{invalid("branch %s has no branches", id)}
	}

	var errs []error

	names := make(map[string]bool, len(inputs.Branches))
	for _, branch := range inputs.Branches {
		if names[branch.Name] {
			errs = append(errs, invalid("branch %s: duplicate branch name %q", id, branch.Name))
		}

		names[branch.Name] = true

		errs = append(errs, e.validateSteps(inputs.Children[branch.Name], seen)...)
	}

	return errs
}

// Execute validates the automation and runs it once. The results carry the trigger echo as
// Steps[0] followed by one result per executed step. A failing step is recorded with
// success false and ends the run; it is not returned as an error.
func (e *Engine) Execute(ctx context.Context, automation *models.Automation, outputs models.TriggerOutputs) (*models.AutomationResults, error) {
	if err := e.Validate(automation); err != nil {
		return nil, err
	}

	trigger := automation.Definition.Trigger

	if outputs != nil && outputs.OutputsOf() != trigger.StepID {
		return nil, invalid("%s outputs given for a %s trigger", outputs.OutputsOf(), trigger.StepID)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AppIDKey, automation.AppID),
		attribute.String(otelhelper.TriggerIDKey, trigger.ID),
		attribute.String(otelhelper.TriggerTypeKey, string(trigger.StepID)),
	)
	defer span.End()

	logger := e.logger.With("automation_id", automation.ID, "trigger", trigger.StepID)
	logger.DebugContext(ctx, "Executing automation", "steps", automation.Definition.StepCount())

	outputs = e.fillCronTimestamp(trigger, outputs)

	triggerOutputs, err := toMap(outputs)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read trigger outputs: %w", err)
	}

	triggerInputs, err := toMap(trigger.Inputs)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read trigger inputs: %w", err)
	}

	triggerResult := models.StepResult{
		ID:      trigger.ID,
		StepID:  string(trigger.StepID),
		Inputs:  triggerInputs,
		Outputs: triggerOutputs,
	}

	x := &execution{
		engine:  e,
		run:     Run{AutomationID: automation.ID, AppID: automation.AppID},
		context: newRunContext(triggerOutputs),
		logger:  logger,
		results: &models.AutomationResults{
			Trigger: triggerResult,
			Steps:   []models.StepResult{triggerResult},
		},
	}

	if _, err := x.steps(ctx, automation.Definition.Steps); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	logger.DebugContext(ctx, "Automation executed", "results", len(x.results.Steps)-1)

	return x.results, nil
}

func (e *Engine) fillCronTimestamp(trigger *models.AutomationTrigger, outputs models.TriggerOutputs) models.TriggerOutputs {
	inputs, ok := trigger.Inputs.(models.CronTriggerInputs)
	if !ok {
		return outputs
	}

	cronOutputs, _ := outputs.(models.CronTriggerOutputs)
	if cronOutputs.Timestamp != 0 {
		return cronOutputs
	}

	schedule, err := cron.ParseStandard(inputs.Cron)
	if err != nil {
		return cronOutputs
	}

	cronOutputs.Timestamp = schedule.Next(e.now()).UnixMilli()

	return cronOutputs
}

// execution is the state of one Execute call.
type execution struct {
	engine  *Engine
	run     Run
	context *runContext
	logger  *slog.Logger
	results *models.AutomationResults
}

func (x *execution) add(id string, stepID models.AutomationActionStepID, inputs, outputs map[string]any) {
	x.results.Steps = append(x.results.Steps, models.StepResult{
		ID:      id,
		StepID:  string(stepID),
		Inputs:  inputs,
		Outputs: outputs,
	})
	x.context.record(id, outputs)
}

// steps runs a step list and reports whether the run must stop.
func (x *execution) steps(ctx context.Context, steps []*models.AutomationStep) (bool, error) {
	for i := 0; i < len(steps); i++ {
		if err := ctx.Err(); err != nil {
			return true, err
		}

		step := steps[i]

		var (
			stop bool
			err  error
		)

		switch inputs := step.Inputs.(type) {
		case models.BranchStepInputs:
			stop, err = x.branch(ctx, step, inputs)
		case models.LoopStepInputs:
			stop, err = x.loop(ctx, step, inputs, steps[i+1])
			i++
		default:
			stop = x.action(ctx, step)
		}

		if err != nil || stop {
			return true, err
		}
	}

	return false, nil
}

func (x *execution) action(ctx context.Context, step *models.AutomationStep) bool {
	ctx, span := otelhelper.StartSpan(ctx, x.engine.tracer, "engine.step",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.StepID)),
	)
	defer span.End()

	resolved, outputs, err := x.invoke(ctx, step)
	if err != nil {
		otelhelper.SetError(span, err)
		x.logger.DebugContext(ctx, "Step failed", "step_id", step.ID, "error", err)
		x.add(step.ID, step.StepID, resolved, failure(err))

		return true
	}

	x.add(step.ID, step.StepID, resolved, outputs)

	return false
}

// invoke resolves the bindings of a step and calls its executor.
func (x *execution) invoke(ctx context.Context, step *models.AutomationStep) (map[string]any, map[string]any, error) {
	stepErr := func(err error) error {
		return &StepError{StepID: step.ID, Kind: string(step.StepID), Err: err}
	}

	inputs, err := x.context.resolveInputs(step.Inputs)
	if err != nil {
		return nil, nil, stepErr(err)
	}

	resolved, _ := toMap(inputs)

	handler, ok := x.engine.handlers[step.StepID]
	if !ok {
		return resolved, nil, stepErr(ErrUnknownStep)
	}

	raw, err := handler(ctx, x.run, inputs)
	if err != nil {
		return resolved, nil, stepErr(err)
	}

	outputs, err := toMap(raw)
	if err != nil {
		return resolved, nil, stepErr(err)
	}

	return resolved, outputs, nil
}

func (x *execution) branch(ctx context.Context, step *models.AutomationStep, inputs models.BranchStepInputs) (bool, error) {
	ctx, span := otelhelper.StartSpan(ctx, x.engine.tracer, "engine.branch",
		attribute.String(otelhelper.StepIDKey, step.ID),
	)
	defer span.End()

	recorded := map[string]any{"branches": inputs.Branches}

	for _, branch := range inputs.Branches {
		condition, err := x.context.resolveFilters(branch.Condition)
		if err != nil {
			otelhelper.SetError(span, err)
			x.add(step.ID, step.StepID, recorded, failure(err))

			return true, nil
		}

		if !matchFilters(condition, x.context.lookupKey) {
			continue
		}

		span.SetAttributes(attribute.String(otelhelper.BranchNameKey, branch.Name))
		x.logger.DebugContext(ctx, "Branch taken", "step_id", step.ID, "branch", branch.Name)

		x.add(step.ID, step.StepID, recorded, map[string]any{
			"success":    true,
			"status":     branch.Name + " branch taken",
			"branchName": branch.Name,
			"branchId":   step.ID,
		})

		return x.steps(ctx, inputs.Children[branch.Name])
	}

	x.add(step.ID, step.StepID, recorded, map[string]any{
		"success": false,
		"status":  "No branch condition met",
	})

	return false, nil
}

func (x *execution) loop(ctx context.Context, step *models.AutomationStep, inputs models.LoopStepInputs, body *models.AutomationStep) (bool, error) {
	ctx, span := otelhelper.StartSpan(ctx, x.engine.tracer, "engine.loop",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(body.StepID)),
	)
	defer span.End()

	loopInputs, _ := toMap(inputs)

	items, err := loopItems(inputs.Option, x.context.resolve(inputs.Binding))
	if err != nil {
		otelhelper.SetError(span, err)
		x.add(step.ID, step.StepID, loopInputs, failure(err))

		return true, nil
	}

	limit := inputs.IterationsLimit
	if limit <= 0 {
		limit = defaultIterationsLimit
	}

	var (
		collected []any
		status    string
		bodyInput map[string]any
	)

	success := true

	for index, item := range items {
		if err := ctx.Err(); err != nil {
			x.context.clearLoop()

			return true, err
		}

		if index >= limit {
			status = "Max iterations reached"

			break
		}

		if inputs.FailureCondition != "" && stringify(item) == inputs.FailureCondition {
			success = false
			status = "Failure condition met"

			break
		}

		x.context.setLoopItem(item, index)

		resolved, outputs, err := x.invoke(ctx, body)
		bodyInput = resolved

		if err != nil {
			otelhelper.SetError(span, err)
			x.context.clearLoop()
			x.add(step.ID, step.StepID, loopInputs, map[string]any{"success": false, "iterations": index})
			x.add(body.ID, body.StepID, bodyInput, failure(err))

			return true, nil
		}

		collected = append(collected, outputs)
	}

	x.context.clearLoop()

	iterations := len(collected)
	loopOutputs := map[string]any{"success": success, "iterations": iterations}
	bodyOutputs := map[string]any{"success": success, "iterations": iterations, "items": collected}

	if status != "" {
		loopOutputs["status"] = status
		bodyOutputs["status"] = status
	}

	if collected == nil {
		bodyOutputs["items"] = []any{}
	}

	x.add(step.ID, step.StepID, loopInputs, loopOutputs)
	x.add(body.ID, body.StepID, bodyInput, bodyOutputs)

	return !success, nil
}

// loopItems splits a resolved loop binding into the items to iterate.
func loopItems(option models.LoopStepType, binding any) ([]any, error) {
	switch v := binding.(type) {
	case nil:
		return nil, fmt.Errorf("%w: binding is empty", ErrInvalidLoopBinding)
	case []any:
		if option == models.LoopString {
			return nil, fmt.Errorf("%w: expected a string, got a list", ErrInvalidLoopBinding)
		}

		return v, nil
	case string:
		if option == models.LoopArray {
			var items []any
			if err := json.Unmarshal([]byte(v), &items); err != nil {
				return nil, fmt.Errorf("%w: %q is not a list", ErrInvalidLoopBinding, v)
			}

			return items, nil
		}

		var items []any

		for _, part := range splitList(v) {
			items = append(items, part)
		}

		return items, nil
	default:
		return nil, fmt.Errorf("%w: cannot iterate %T", ErrInvalidLoopBinding, binding)
	}
}

func orEmpty(inputs models.TriggerInputs) any {
	if inputs == nil {
		return map[string]any{}
	}

	return inputs
}

func failure(err error) map[string]any {
	return map[string]any{
		"success":  false,
		"response": err.Error(),
	}
}
