package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/engine"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence/file"
	"github.com/dukex/autoflow/pkg/services"
	"github.com/dukex/autoflow/pkg/testutil"
	"github.com/dukex/autoflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Automation) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.Builtin()
	automationService := services.NewAutomation(
		file.NewPersistence(t.TempDir()),
		engine.New(cat, logger),
		nil,
		logger,
	)

	handlers := web.NewAPIHandlers(automationService, cat, validator.New(validator.WithRequiredStructEnabled()))

	return web.NewApp(handlers, false), automationService
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func requestFrom(automation *models.Automation) web.CreateAutomationRequest {
	return web.CreateAutomationRequest{
		Name:       automation.Name,
		AppID:      automation.AppID,
		Definition: automation.Definition,
	}
}

func TestAPIHandlers_CreateAutomation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedDetail string
	}{
		{
			name:           "successful creation",
			requestBody:    requestFrom(testutil.CreateTestAutomation()),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing name",
			requestBody:    requestFrom(testutil.CreateTestAutomation(testutil.WithName(""))),
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Name",
		},
		{
			name: "validation error - missing trigger",
			requestBody: requestFrom(testutil.CreateTestAutomation(func(a *models.Automation) {
				a.Definition.Trigger = nil
			})),
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Trigger",
		},
		{
			name: "invalid definition",
			requestBody: requestFrom(testutil.CreateTestAutomation(
				testutil.WithTrigger(models.CronTriggerInputs{Cron: "not a cron"}),
			)),
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "invalid automation definition",
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, body := doRequest(t, app, http.MethodPost, "/api/automations", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))

			if tt.expectedStatus == http.StatusCreated {
				var created models.Automation
				require.NoError(t, json.Unmarshal(body, &created))

				assert.NotEmpty(t, created.ID)
				assert.Equal(t, "Test Automation", created.Name)
				assert.Equal(t, models.AutomationTypeAutomation, created.Type)
				require.Len(t, created.Definition.Steps, 2)
				assert.IsType(t, models.CreateRowStepInputs{}, created.Definition.Steps[0].Inputs)

				return
			}

			var problem map[string]any
			require.NoError(t, json.Unmarshal(body, &problem))
			assert.Equal(t, "validation_error", problem["type"])
			assert.Contains(t, problem["detail"], tt.expectedDetail)
		})
	}
}

func TestAPIHandlers_GetAutomation(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	resp, body := doRequest(t, app, http.MethodGet, "/api/automations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var automation models.Automation
	require.NoError(t, json.Unmarshal(body, &automation))
	assert.Equal(t, created.ID, automation.ID)
	assert.Equal(t, created.Definition.Trigger.ID, automation.Definition.Trigger.ID)

	resp, body = doRequest(t, app, http.MethodGet, "/api/automations/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "automation_not_found", problem["type"])
}

func TestAPIHandlers_GetAutomations(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	for _, appID := range []string{"app_a", "app_b"} {
		_, err := service.Create(t.Context(), testutil.CreateTestAutomation(testutil.WithAppID(appID)))
		require.NoError(t, err)
	}

	resp, body := doRequest(t, app, http.MethodGet, "/api/automations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all web.ListAutomationsResponse
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Equal(t, 2, all.TotalCount)

	resp, body = doRequest(t, app, http.MethodGet, "/api/automations?app_id=app_b", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered web.ListAutomationsResponse
	require.NoError(t, json.Unmarshal(body, &filtered))
	require.Len(t, filtered.Automations, 1)
	assert.Equal(t, "app_b", filtered.Automations[0].AppID)
}

func TestAPIHandlers_DeleteAutomation(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	resp, _ := doRequest(t, app, http.MethodDelete, "/api/automations/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/automations/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_TestAutomation(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation())
	require.NoError(t, err)

	resp, body := doRequest(t, app, http.MethodPost, "/api/automations/"+created.ID+"/test", models.AppActionTriggerOutputs{
		Fields: map[string]any{"name": "Ada"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var response web.TestAutomationResponse
	require.NoError(t, json.Unmarshal(body, &response))

	require.Len(t, response.Body.Steps, 3)
	assert.Equal(t, created.Definition.Trigger.ID, response.Body.Steps[0].ID)
	assert.Equal(t, response.Body.Trigger, response.Body.Steps[0])
	assert.Equal(t, "CREATE_ROW", response.Body.Steps[1].StepID)
	assert.True(t, response.Body.Steps[1].Success())
	assert.Equal(t, "app_test - created "+response.Body.Steps[1].Outputs["id"].(string), response.Body.Steps[2].Outputs["message"])

	resp, _ = doRequest(t, app, http.MethodPost, "/api/automations/missing/test", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/automations/"+created.ID+"/test", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_TestDisabledAutomation(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(t.Context(), testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Disabled = true
	}))
	require.NoError(t, err)

	resp, body := doRequest(t, app, http.MethodPost, "/api/automations/"+created.ID+"/test", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "conflict", problem["type"])
}

func TestAPIHandlers_Catalog(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/api/catalog/steps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var steps []catalog.Entry
	require.NoError(t, json.Unmarshal(body, &steps))

	ids := make([]string, 0, len(steps))
	for _, entry := range steps {
		ids = append(ids, entry.StepID)
	}

	assert.Contains(t, ids, "CREATE_ROW")
	assert.Contains(t, ids, "BRANCH")

	resp, body = doRequest(t, app, http.MethodGet, "/api/catalog/triggers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var triggers []catalog.Entry
	require.NoError(t, json.Unmarshal(body, &triggers))
	assert.Len(t, triggers, len(models.TriggerStepIDs()))
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}
