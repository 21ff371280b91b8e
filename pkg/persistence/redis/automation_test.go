package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
	redispersistence "github.com/dukex/autoflow/pkg/persistence/redis"
	"github.com/dukex/autoflow/pkg/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redispersistence.Persistence) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	p := redispersistence.NewPersistenceWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client, "test")

	t.Cleanup(func() {
		_ = p.Close(context.Background())
		server.Close()
	})

	return server, p
}

func TestAutomationRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	server, p := setupTestRedis(t)

	automation := testutil.CreateTestAutomation(testutil.WithTrigger(models.WebhookTriggerInputs{TriggerURL: "/hooks/1"}))
	require.NoError(t, p.SaveAutomation(ctx, automation))

	assert.True(t, server.Exists("test:automation:"+automation.ID))

	loaded, err := p.AutomationByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, automation.Name, loaded.Name)
	assert.Equal(t, models.WebhookTriggerInputs{TriggerURL: "/hooks/1"}, loaded.Definition.Trigger.Inputs)
	assert.Equal(t, automation.Definition.Steps[0].Inputs, loaded.Definition.Steps[0].Inputs)
}

func TestAutomationRepository_ListOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	_, p := setupTestRedis(t)

	older := testutil.CreateTestAutomation(testutil.WithName("older"))
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := testutil.CreateTestAutomation(testutil.WithName("newer"))

	require.NoError(t, p.SaveAutomation(ctx, newer))
	require.NoError(t, p.SaveAutomation(ctx, older))

	all, err := p.Automations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "older", all[0].Name)
	assert.Equal(t, "newer", all[1].Name)

	require.NoError(t, p.DeleteAutomation(ctx, older.ID))

	_, err = p.AutomationByID(ctx, older.ID)
	assert.ErrorIs(t, err, persistence.ErrAutomationNotFound)

	err = p.DeleteAutomation(ctx, older.ID)
	assert.ErrorIs(t, err, persistence.ErrAutomationNotFound)

	all, err = p.Automations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAutomationRepository_InvalidAutomation(t *testing.T) {
	_, p := setupTestRedis(t)

	err := p.SaveAutomation(context.Background(), &models.Automation{})
	assert.ErrorIs(t, err, persistence.ErrInvalidAutomation)
}

func TestPersistence_HealthCheck(t *testing.T) {
	server, p := setupTestRedis(t)

	assert.NoError(t, p.HealthCheck(context.Background()))

	server.SetError("LOADING server is loading")
	assert.Error(t, p.HealthCheck(context.Background()))
}
