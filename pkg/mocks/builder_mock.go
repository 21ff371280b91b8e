package mocks

import (
	"context"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockConfig is a mock implementation of builder.Config interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) AppID() string {
	args := m.Called()

	return args.String(0)
}

func (m *MockConfig) CreateAutomation(ctx context.Context, automation *models.Automation) (*models.Automation, error) {
	args := m.Called(ctx, automation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Automation), args.Error(1)
}

// MockHarness is a mock implementation of builder.Harness interface.
type MockHarness struct {
	mock.Mock
}

func (m *MockHarness) TestAutomation(
	ctx context.Context,
	cfg builder.Config,
	automation *models.Automation,
	outputs models.TriggerOutputs,
) (*builder.TestResponse, error) {
	args := m.Called(ctx, cfg, automation, outputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*builder.TestResponse), args.Error(1)
}
