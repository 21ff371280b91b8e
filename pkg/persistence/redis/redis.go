// Package redis provides Redis persistence for automations.
//
// Keys:
//
//	<prefix>automation:<id>   => JSON automation document
//	<prefix>idx:automations   => sorted set of automation IDs scored by creation time
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "autoflow:"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client         *redis.Client
	logger         *slog.Logger
	automationRepo *AutomationRepository
}

// NewPersistence connects to the Redis server at redisURL ("redis://host:port/db").
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(logger, client, defaultPrefix), nil
}

// NewPersistenceWithClient uses an existing client. An empty prefix selects "autoflow:".
func NewPersistenceWithClient(logger *slog.Logger, client *redis.Client, prefix string) *Persistence {
	if prefix == "" {
		prefix = defaultPrefix
	}

	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Persistence{
		client:         client,
		logger:         logger,
		automationRepo: NewAutomationRepository(client, prefix),
	}
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Automations(ctx context.Context) ([]*models.Automation, error) {
	return p.automationRepo.GetAll(ctx)
}

func (p *Persistence) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	return p.automationRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveAutomation(ctx context.Context, automation *models.Automation) error {
	return p.automationRepo.Save(ctx, automation)
}

func (p *Persistence) DeleteAutomation(ctx context.Context, id string) error {
	return p.automationRepo.Delete(ctx, id)
}
