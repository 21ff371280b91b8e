package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/engine"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(opts ...engine.Option) *engine.Engine {
	return engine.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func step(id string, inputs models.StepInputs) *models.AutomationStep {
	return &models.AutomationStep{ID: id, StepID: inputs.ActionStepID(), Inputs: inputs}
}

func automationWith(trigger models.TriggerInputs, steps ...*models.AutomationStep) *models.Automation {
	return &models.Automation{
		ID:    "au_1",
		Name:  "Test",
		AppID: "app_1",
		Definition: models.AutomationDefinition{
			Trigger: &models.AutomationTrigger{ID: "trigger", StepID: trigger.TriggerStepID(), Inputs: trigger},
			Steps:   steps,
		},
	}
}

func TestExecute_RowSavedCreatesRowAndLogs(t *testing.T) {
	e := newEngine()

	automation := automationWith(models.RowCreatedTriggerInputs{TableID: "table_1"},
		step("create", models.CreateRowStepInputs{Row: models.Row{"tableId": "table_2", "name": "{{ trigger.row.name }}"}}),
		step("log", models.ServerLogStepInputs{Text: "created {{ steps[1].row.name }}"}),
	)

	results, err := e.Execute(context.Background(), automation, models.RowCreatedTriggerOutputs{
		Row: models.Row{"tableId": "table_1", "name": "Ada"},
	})
	require.NoError(t, err)
	require.Len(t, results.Steps, 3)

	assert.Equal(t, "trigger", results.Steps[0].ID)
	assert.Equal(t, results.Trigger, results.Steps[0])
	assert.Equal(t, "Ada", results.Trigger.Outputs["row"].(map[string]any)["name"])

	created := results.Steps[1]
	assert.True(t, created.Success())
	assert.Equal(t, "CREATE_ROW", created.StepID)
	assert.Equal(t, "Ada", created.Outputs["row"].(map[string]any)["name"])
	assert.NotEmpty(t, created.Outputs["id"])

	logged := results.Steps[2]
	assert.True(t, logged.Success())
	assert.Equal(t, "app_1 - created Ada", logged.Outputs["message"])
	assert.Equal(t, "created Ada", logged.Inputs["text"])
}

func TestExecute_Branch(t *testing.T) {
	branch := models.BranchStepInputs{
		Branches: []models.Branch{
			{Name: "Yes", Condition: models.SearchFilters{Equal: map[string]any{"{{ trigger.fields.status }}": "yes"}}},
			{Name: "No", Condition: models.SearchFilters{Equal: map[string]any{"{{ trigger.fields.status }}": "no"}}},
		},
		Children: map[string][]*models.AutomationStep{
			"Yes": {step("yes_log", models.ServerLogStepInputs{Text: "yes"})},
			"No":  {step("no_log", models.ServerLogStepInputs{Text: "no"})},
		},
	}

	testCases := []struct {
		name       string
		status     string
		wantIDs    []string
		wantStatus string
		wantTaken  bool
	}{
		{"first branch", "yes", []string{"trigger", "branch", "yes_log", "after"}, "Yes branch taken", true},
		{"second branch", "no", []string{"trigger", "branch", "no_log", "after"}, "No branch taken", true},
		{"no branch", "maybe", []string{"trigger", "branch", "after"}, "No branch condition met", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			automation := automationWith(models.AppActionTriggerInputs{},
				step("branch", branch),
				step("after", models.ServerLogStepInputs{Text: "after"}),
			)

			results, err := newEngine().Execute(context.Background(), automation, models.AppActionTriggerOutputs{
				Fields: map[string]any{"status": tc.status},
			})
			require.NoError(t, err)

			var ids []string
			for _, result := range results.Steps {
				ids = append(ids, result.ID)
			}

			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantStatus, results.Steps[1].Outputs["status"])
			assert.Equal(t, tc.wantTaken, results.Steps[1].Success())

			if tc.wantTaken {
				assert.Equal(t, "branch", results.Steps[1].Outputs["branchId"])
			}
		})
	}
}

func TestExecute_FirstMatchingBranchWins(t *testing.T) {
	automation := automationWith(models.AppActionTriggerInputs{},
		step("branch", models.BranchStepInputs{
			Branches: []models.Branch{
				{Name: "A", Condition: models.SearchFilters{}},
				{Name: "B", Condition: models.SearchFilters{}},
			},
			Children: map[string][]*models.AutomationStep{},
		}),
	)

	results, err := newEngine().Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	require.Len(t, results.Steps, 2)
	assert.Equal(t, "A", results.Steps[1].Outputs["branchName"])
}

func TestExecute_LoopOverArray(t *testing.T) {
	automation := automationWith(models.WebhookTriggerInputs{},
		step("loop", models.LoopStepInputs{Option: models.LoopArray, Binding: "{{ trigger.body.names }}"}),
		step("log", models.ServerLogStepInputs{Text: "hi {{ loop.currentItem }}"}),
	)

	results, err := newEngine().Execute(context.Background(), automation, models.WebhookTriggerOutputs{
		Body: map[string]any{"names": []any{"Ada", "Grace", "Linus"}},
	})
	require.NoError(t, err)
	require.Len(t, results.Steps, 3)

	loop := results.Steps[1]
	assert.True(t, loop.Success())
	assert.EqualValues(t, 3, loop.Outputs["iterations"])

	body := results.Steps[2].Outputs
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, "app_1 - hi Grace", items[1].(map[string]any)["message"])
}

func TestExecute_LoopLimits(t *testing.T) {
	testCases := []struct {
		name           string
		inputs         models.LoopStepInputs
		wantIterations int
		wantSuccess    bool
	}{
		{
			name:           "string binding",
			inputs:         models.LoopStepInputs{Option: models.LoopString, Binding: "a, b,c"},
			wantIterations: 3,
			wantSuccess:    true,
		},
		{
			name:           "iteration limit",
			inputs:         models.LoopStepInputs{Option: models.LoopString, Binding: "a,b,c", IterationsLimit: 2},
			wantIterations: 2,
			wantSuccess:    true,
		},
		{
			name:           "failure condition",
			inputs:         models.LoopStepInputs{Option: models.LoopString, Binding: "a,stop,c", FailureCondition: "stop"},
			wantIterations: 1,
			wantSuccess:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			automation := automationWith(models.AppActionTriggerInputs{},
				step("loop", tc.inputs),
				step("log", models.ServerLogStepInputs{Text: "{{ loop.currentItem }}"}),
			)

			results, err := newEngine().Execute(context.Background(), automation, nil)
			require.NoError(t, err)
			require.Len(t, results.Steps, 3)

			assert.EqualValues(t, tc.wantIterations, results.Steps[2].Outputs["iterations"])
			assert.Equal(t, tc.wantSuccess, results.Steps[2].Success())
		})
	}
}

func TestExecute_FailingStepStopsRun(t *testing.T) {
	automation := automationWith(models.AppActionTriggerInputs{},
		step("delete", models.DeleteRowStepInputs{TableID: "table_1", ID: "ro_missing"}),
		step("log", models.ServerLogStepInputs{Text: "never"}),
	)

	results, err := newEngine().Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	require.Len(t, results.Steps, 2)

	assert.False(t, results.Steps[1].Success())
	assert.Contains(t, results.Steps[1].Outputs["response"], "row not found")
}

func TestExecute_QueryRunner(t *testing.T) {
	automation := automationWith(models.AppActionTriggerInputs{},
		step("query", models.ExecuteQueryStepInputs{Query: models.QueryReference{QueryID: "query_1"}}),
	)

	t.Run("without runner", func(t *testing.T) {
		results, err := newEngine().Execute(context.Background(), automation, nil)
		require.NoError(t, err)
		assert.Contains(t, results.Steps[1].Outputs["response"], engine.ErrNoQueryRunner.Error())
	})

	t.Run("with runner", func(t *testing.T) {
		runner := engine.QueryFunc(func(_ context.Context, query models.QueryReference) (any, error) {
			return []any{map[string]any{"query": query.QueryID}}, nil
		})

		results, err := newEngine(engine.WithQueryRunner(runner)).Execute(context.Background(), automation, nil)
		require.NoError(t, err)
		assert.True(t, results.Steps[1].Success())
		assert.Equal(t, []any{map[string]any{"query": "query_1"}}, results.Steps[1].Outputs["response"])
	})
}

func TestExecute_EmailGoesToMailer(t *testing.T) {
	outbox := engine.NewOutbox()

	automation := automationWith(models.RowCreatedTriggerInputs{TableID: "table_1"},
		step("email", models.SmtpEmailStepInputs{
			To:       "{{ trigger.row.email }}",
			From:     "noreply@example.com",
			Subject:  "Welcome",
			Contents: "<p>Hello {{ trigger.row.name }}</p>",
			CC:       "a@example.com, b@example.com",
		}),
	)

	results, err := newEngine(engine.WithMailer(outbox)).Execute(context.Background(), automation, models.RowCreatedTriggerOutputs{
		Row: models.Row{"tableId": "table_1", "name": "Ada", "email": "ada@example.com"},
	})
	require.NoError(t, err)
	assert.True(t, results.Steps[1].Success())

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Equal(t, "<p>Hello Ada</p>", sent[0].Contents)

	response := results.Steps[1].Outputs["response"].(map[string]any)
	assert.Equal(t, []any{"ada@example.com", "a@example.com", "b@example.com"}, response["accepted"])
}

func TestExecute_RowLifecycle(t *testing.T) {
	rows := engine.NewMemoryRows()

	automation := automationWith(models.AppActionTriggerInputs{},
		step("create", models.CreateRowStepInputs{Row: models.Row{"tableId": "table_1", "name": "Ada", "age": 36}}),
		step("update", models.UpdateRowStepInputs{RowID: "{{ steps.1.id }}", Row: models.Row{"tableId": "table_1", "age": 37}}),
		step("query", models.QueryRowsStepInputs{TableID: "table_1", Filters: models.SearchFilters{Range: map[string]models.RangeFilter{"age": {Low: 37}}}}),
		step("delete", models.DeleteRowStepInputs{TableID: "table_1", ID: "{{ stepsById.create.id }}"}),
	)

	results, err := newEngine(engine.WithRowStore(rows)).Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	require.Len(t, results.Steps, 5)

	for _, result := range results.Steps[1:] {
		assert.True(t, result.Success(), result.ID)
	}

	updated := results.Steps[2].Outputs["row"].(map[string]any)
	assert.EqualValues(t, 37, updated["age"])
	assert.Equal(t, "Ada", updated["name"])

	found := results.Steps[3].Outputs["rows"].([]any)
	assert.Len(t, found, 1)

	remaining, err := rows.Query(context.Background(), engine.RowQuery{TableID: "table_1"})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestExecute_CronTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	automation := automationWith(models.CronTriggerInputs{Cron: "0 * * * *"},
		step("log", models.ServerLogStepInputs{Text: "at {{ trigger.timestamp }}"}),
	)

	e := newEngine(engine.WithClock(func() time.Time { return now }))

	results, err := e.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	want := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC).UnixMilli()
	assert.EqualValues(t, want, results.Trigger.Outputs["timestamp"])

	results, err = e.Execute(context.Background(), automation, models.CronTriggerOutputs{Timestamp: 42})
	require.NoError(t, err)
	assert.EqualValues(t, 42, results.Trigger.Outputs["timestamp"])
}

func TestExecute_CustomExecutor(t *testing.T) {
	e := newEngine()
	e.Register(models.ActionServerLog, func(_ context.Context, run engine.Run, inputs models.StepInputs) (map[string]any, error) {
		return map[string]any{"success": true, "seen": run.AutomationID + ":" + inputs.(models.ServerLogStepInputs).Text}, nil
	})

	automation := automationWith(models.AppActionTriggerInputs{},
		step("log", models.ServerLogStepInputs{Text: "custom"}),
	)

	results, err := e.Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	assert.Equal(t, "au_1:custom", results.Steps[1].Outputs["seen"])
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	automation := automationWith(models.AppActionTriggerInputs{},
		step("log", models.ServerLogStepInputs{Text: "never"}),
	)

	_, err := newEngine().Execute(ctx, automation, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name       string
		automation *models.Automation
		wantErr    error
	}{
		{
			name:       "valid",
			automation: automationWith(models.AppActionTriggerInputs{}, step("log", models.ServerLogStepInputs{Text: "ok"})),
		},
		{
			name:       "nil automation",
			automation: nil,
			wantErr:    engine.ErrInvalidDefinition,
		},
		{
			name:       "missing trigger",
			automation: &models.Automation{ID: "au_1"},
			wantErr:    engine.ErrInvalidDefinition,
		},
		{
			name:       "bad cron",
			automation: automationWith(models.CronTriggerInputs{Cron: "every day"}),
			wantErr:    engine.ErrInvalidDefinition,
		},
		{
			name:       "empty cron",
			automation: automationWith(models.CronTriggerInputs{}),
			wantErr:    engine.ErrInvalidDefinition,
		},
		{
			name: "duplicate step ids",
			automation: automationWith(models.AppActionTriggerInputs{},
				step("log", models.ServerLogStepInputs{Text: "a"}),
				step("log", models.ServerLogStepInputs{Text: "b"}),
			),
			wantErr: engine.ErrInvalidDefinition,
		},
		{
			name: "schema violation",
			automation: automationWith(models.AppActionTriggerInputs{},
				step("delete", models.DeleteRowStepInputs{TableID: "table_1"}),
			),
			wantErr: engine.ErrInvalidDefinition,
		},
		{
			name: "branch without branches",
			automation: automationWith(models.AppActionTriggerInputs{},
				step("branch", models.BranchStepInputs{Branches: []models.Branch{}, Children: map[string][]*models.AutomationStep{}}),
			),
			wantErr: engine.ErrInvalidDefinition,
		},
		{
			name: "duplicate branch names",
			automation: automationWith(models.AppActionTriggerInputs{},
				step("branch", models.BranchStepInputs{
					Branches: []models.Branch{{Name: "A"}, {Name: "A"}},
					Children: map[string][]*models.AutomationStep{},
				}),
			),
			wantErr: engine.ErrInvalidDefinition,
		},
		{
			name: "loop without body",
			automation: automationWith(models.AppActionTriggerInputs{},
				step("loop", models.LoopStepInputs{Option: models.LoopString, Binding: "a"}),
			),
			wantErr: engine.ErrInvalidDefinition,
		},
		{
			name: "unknown step",
			automation: automationWith(models.AppActionTriggerInputs{},
				&models.AutomationStep{ID: "x", StepID: "TELEPORT", Inputs: models.ServerLogStepInputs{}},
			),
			wantErr: engine.ErrUnknownStep,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newEngine().Validate(tc.automation)
			if tc.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestExecute_RejectsMismatchedOutputs(t *testing.T) {
	automation := automationWith(models.AppActionTriggerInputs{})

	_, err := newEngine().Execute(context.Background(), automation, models.CronTriggerOutputs{})
	assert.True(t, errors.Is(err, engine.ErrInvalidDefinition))
}
