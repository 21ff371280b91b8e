package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/engine"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/mocks"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence/file"
	"github.com/dukex/autoflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, bus *mocks.MockEventBus) *Automation {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAutomation(file.NewPersistence(t.TempDir()), engine.New(nil, logger), nil, logger)

	if bus != nil {
		service.publisher = bus
	}

	return service
}

func TestAutomation_HealthCheck(t *testing.T) {
	service := newTestService(t, nil)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	broken := &mocks.MockPersistence{}
	broken.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
	service.persistence = broken

	message, ok = service.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer is unhealthy: connection refused", message)

	service.persistence = nil

	message, ok = service.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestAutomation_Create(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.AutomationCreated")).Return(nil)

	service := newTestService(t, bus)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	automation := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.ID = ""
		a.Type = ""
	})

	created, err := service.Create(t.Context(), automation)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.AutomationTypeAutomation, created.Type)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.False(t, created.UpdatedAt.IsZero())

	stored, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
	assert.Len(t, stored.Definition.Steps, 2)

	bus.AssertNumberOfCalls(t, "Publish", 1)

	event := bus.Calls[0].Arguments.Get(2).(events.AutomationCreated)
	assert.Equal(t, created.ID, event.AutomationID)
	assert.Equal(t, 2, event.StepCount)
	assert.Equal(t, "APP", event.Trigger)
}

func TestAutomation_CreateValidation(t *testing.T) {
	testCases := []struct {
		name       string
		automation *models.Automation
		target     error
	}{
		{"nil", nil, ErrAutomationNil},
		{"empty app", testutil.CreateTestAutomation(testutil.WithAppID(" ")), ErrEmptyAppID},
		{
			name: "no trigger",
			automation: testutil.CreateTestAutomation(func(a *models.Automation) {
				a.Definition.Trigger = nil
			}),
			target: ErrTriggerRequired,
		},
		{"no name", testutil.CreateTestAutomation(testutil.WithName("")), ErrInvalidRequest},
		{
			name:       "bad cron",
			automation: testutil.CreateTestAutomation(testutil.WithTrigger(models.CronTriggerInputs{Cron: "every day"})),
			target:     engine.ErrInvalidDefinition,
		},
		{
			name: "empty branch",
			automation: testutil.CreateTestAutomation(testutil.WithSteps(
				testutil.CreateTestStep(models.BranchStepInputs{}),
			)),
			target: engine.ErrInvalidDefinition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := newTestService(t, nil)

			_, err := service.Create(t.Context(), tc.automation)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestAutomation_CreateExisting(t *testing.T) {
	service := newTestService(t, nil)

	automation := testutil.CreateTestAutomation()
	_, err := service.Create(t.Context(), automation)
	require.NoError(t, err)

	_, err = service.Create(t.Context(), testutil.CreateTestAutomation(func(a *models.Automation) {
		a.ID = automation.ID
	}))
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestAutomation_ListByApp(t *testing.T) {
	service := newTestService(t, nil)

	for _, appID := range []string{"app_a", "app_b", "app_a"} {
		_, err := service.Create(t.Context(), testutil.CreateTestAutomation(testutil.WithAppID(appID)))
		require.NoError(t, err)
	}

	all, err := service.List(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := service.List(t.Context(), "app_a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	for _, automation := range onlyA {
		assert.Equal(t, "app_a", automation.AppID)
	}
}

func TestAutomation_Delete(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newTestService(t, bus)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.True(t, IsNotFoundError(err))

	err = service.Delete(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrAutomationNotFound)

	bus.AssertCalled(t, "Publish", mock.Anything, created.ID, mock.AnythingOfType("events.AutomationDeleted"))
}

func TestAutomation_Test(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newTestService(t, bus)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	results, err := service.Test(t.Context(), created.ID, models.AppActionTriggerOutputs{
		Fields: map[string]any{"name": "Grace"},
	})
	require.NoError(t, err)
	require.Len(t, results.Steps, 3)

	assert.Equal(t, created.Definition.Trigger.ID, results.Steps[0].ID)
	assert.True(t, results.Steps[1].Success())
	assert.Equal(t, "Grace", results.Steps[1].Outputs["row"].(map[string]any)["name"])
	assert.True(t, results.Steps[2].Success())

	bus.AssertCalled(t, "Publish", mock.Anything, created.ID, mock.MatchedBy(func(event events.AutomationTested) bool {
		return event.Success && event.Steps == 2
	}))
}

func TestAutomation_TestRejected(t *testing.T) {
	service := newTestService(t, nil)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	_, err = service.Test(t.Context(), "missing", nil)
	assert.True(t, IsNotFoundError(err))

	_, err = service.Test(t.Context(), created.ID, models.CronTriggerOutputs{Timestamp: 1})
	assert.ErrorIs(t, err, ErrTriggerMismatch)
	assert.True(t, IsValidationError(err))

	created.Disabled = true
	require.NoError(t, service.persistence.SaveAutomation(t.Context(), created))

	_, err = service.Test(t.Context(), created.ID, models.AppActionTriggerOutputs{})
	assert.ErrorIs(t, err, ErrAutomationDisabled)
	assert.True(t, IsConflictError(err))
}

func TestAutomation_PublishFailureIsNotFatal(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service := newTestService(t, bus)

	_, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	assert.NoError(t, err)
}
