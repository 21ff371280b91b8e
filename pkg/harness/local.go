// Package harness provides the collaborators an automation builder runs against: an
// in-process configuration and harness backed by the automation service, and an HTTP
// client for a running autoflow server.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/models"
)

// ErrNoAutomation is returned when a harness is asked to test a nil automation.
var ErrNoAutomation = errors.New("no automation to test")

// AutomationService stores and runs automations.
type AutomationService interface {
	Create(ctx context.Context, automation *models.Automation) (*models.Automation, error)
	Test(ctx context.Context, id string, outputs models.TriggerOutputs) (*models.AutomationResults, error)
}

// TestConfig is the ambient test configuration of one application.
type TestConfig struct {
	appID   string
	service AutomationService
}

// NewTestConfig returns a configuration that creates automations for appID through service.
func NewTestConfig(appID string, service AutomationService) *TestConfig {
	return &TestConfig{appID: appID, service: service}
}

func (c *TestConfig) AppID() string {
	return c.appID
}

// CreateAutomation stores the automation under the configured application.
func (c *TestConfig) CreateAutomation(ctx context.Context, automation *models.Automation) (*models.Automation, error) {
	if automation == nil {
		return nil, ErrNoAutomation
	}

	if automation.AppID == "" {
		automation.AppID = c.appID
	}

	return c.service.Create(ctx, automation)
}

// Local runs automations in process.
type Local struct {
	service AutomationService
}

func NewLocal(service AutomationService) *Local {
	return &Local{service: service}
}

// TestAutomation reloads the stored automation and executes it once with outputs as the
// trigger payload. The response keeps the trigger echo as its first step.
func (l *Local) TestAutomation(
	ctx context.Context,
	cfg builder.Config,
	automation *models.Automation,
	outputs models.TriggerOutputs,
) (*builder.TestResponse, error) {
	if automation == nil {
		return nil, ErrNoAutomation
	}

	if cfg != nil && automation.AppID != cfg.AppID() {
		return nil, fmt.Errorf("automation %s belongs to app %q, not %q", automation.ID, automation.AppID, cfg.AppID())
	}

	results, err := l.service.Test(ctx, automation.ID, outputs)
	if err != nil {
		return nil, err
	}

	return &builder.TestResponse{Body: *results}, nil
}
