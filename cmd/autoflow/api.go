package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/autoflow/pkg/catalog"
	"github.com/dukex/autoflow/pkg/engine"
	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/dukex/autoflow/pkg/services"
	"github.com/dukex/autoflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *engine.Engine
	catalog     *catalog.Catalog
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eng *engine.Engine,
	cat *catalog.Catalog,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		engine:      eng,
		catalog:     cat,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	automationService := services.NewAutomation(a.persistence, a.engine, a.eventBus, a.logger)
	handlers := web.NewAPIHandlers(automationService, a.catalog, a.validate)

	return web.NewApp(handlers, true)
}

// WatchEvents logs every automation lifecycle event published on the bus.
func (a *API) WatchEvents(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	for _, eventType := range []events.EventType{
		events.AutomationCreatedEvent,
		events.AutomationDeletedEvent,
		events.AutomationTestedEvent,
	} {
		err := a.eventBus.Handle(eventType, func(ctx context.Context, event any) error {
			a.logger.InfoContext(ctx, "Automation event", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return err
		}
	}

	err := a.eventBus.Handle(events.AutomationTestFailedEvent, eventbus.Typed(func(ctx context.Context, event *events.AutomationTestFailed) error {
		a.logger.WarnContext(ctx, "Automation test failed", "automation_id", event.AutomationID, "app_id", event.AppID, "error", event.Error)

		return nil
	}))
	if err != nil {
		return err
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
