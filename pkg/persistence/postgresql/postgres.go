// Package postgresql provides PostgreSQL persistence for automations.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	automationRepo *AutomationRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager, err := sqlbase.NewMigrationManager(logger, database, migrations())
	if err != nil {
		_ = database.Close()

		return nil, err
	}

	postgres := &Persistence{
		db:             database,
		logger:         logger,
		automationRepo: NewAutomationRepository(database, logger),
	}

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Automations returns all automations from the database.
func (p *Persistence) Automations(ctx context.Context) ([]*models.Automation, error) {
	return p.automationRepo.GetAll(ctx)
}

// AutomationByID returns an automation by its ID.
func (p *Persistence) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	return p.automationRepo.GetByID(ctx, id)
}

// SaveAutomation saves an automation to the database.
func (p *Persistence) SaveAutomation(ctx context.Context, automation *models.Automation) error {
	return p.automationRepo.Save(ctx, automation)
}

// DeleteAutomation soft deletes an automation by setting deleted_at timestamp.
func (p *Persistence) DeleteAutomation(ctx context.Context, id string) error {
	return p.automationRepo.Delete(ctx, id)
}
