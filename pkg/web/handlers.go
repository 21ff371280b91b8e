package web

import (
	"net/http"
	"time"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	automationService *services.Automation
	catalog           *catalog.Catalog
	validator         *validator.Validate
}

func NewAPIHandlers(
	automationService *services.Automation,
	catalog *catalog.Catalog,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		automationService: automationService,
		catalog:           catalog,
		validator:         validator,
	}
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	automations, err := h.automationService.List(c.Context(), c.Query("app_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if automations == nil {
		automations = []*models.Automation{}
	}

	return c.JSON(ListAutomationsResponse{
		Automations: automations,
		TotalCount:  len(automations),
	})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	automation, err := h.automationService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	automation := &models.Automation{
		ID:         req.ID,
		Name:       req.Name,
		AppID:      req.AppID,
		Definition: req.Definition,
		Disabled:   req.Disabled,
	}

	created, err := h.automationService.Create(c.Context(), automation)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	if err := h.automationService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TestAutomation runs a stored automation once. The request body is the simulated
// trigger payload, decoded according to the automation's trigger kind.
func (h *APIHandlers) TestAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	automation, err := h.automationService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	outputs, err := models.DecodeTriggerOutputs(automation.Definition.Trigger.StepID, c.Body())
	if err != nil {
		return badRequest(c, "Invalid trigger outputs: "+err.Error())
	}

	results, err := h.automationService.Test(c.Context(), id, outputs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TestAutomationResponse{Body: *results})
}

func (h *APIHandlers) GetSteps(c fiber.Ctx) error {
	return c.JSON(h.catalog.Steps())
}

func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	return c.JSON(h.catalog.Triggers())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.automationService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Autoflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Autoflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
