package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// AutomationRepository stores automations as JSON strings indexed by a sorted set.
type AutomationRepository struct {
	client *redis.Client
	prefix string
}

func NewAutomationRepository(client *redis.Client, prefix string) *AutomationRepository {
	return &AutomationRepository{client: client, prefix: prefix}
}

func (r *AutomationRepository) keyAutomation(id string) string {
	return r.prefix + "automation:" + id
}

func (r *AutomationRepository) keyIndex() string {
	return r.prefix + "idx:automations"
}

// GetAll returns every automation, oldest first. Index entries without a document are skipped.
func (r *AutomationRepository) GetAll(ctx context.Context) ([]*models.Automation, error) {
	ids, err := r.client.ZRange(ctx, r.keyIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read automation index: %w", err)
	}

	automations := make([]*models.Automation, 0, len(ids))
	if len(ids) == 0 {
		return automations, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keyAutomation(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read automations: %w", err)
	}

	for i, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}

		automation, err := decode(ids[i], []byte(data))
		if err != nil {
			return nil, err
		}

		automations = append(automations, automation)
	}

	return automations, nil
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	data, err := r.client.Get(ctx, r.keyAutomation(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewAutomationError("ByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, fmt.Errorf("failed to fetch automation %s: %w", id, err)
	}

	return decode(id, data)
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	if automation == nil || automation.ID == "" {
		return persistence.NewAutomationError("Save", "", persistence.ErrInvalidAutomation)
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	data, err := json.Marshal(automation)
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.keyAutomation(automation.ID), data, 0)
	pipe.ZAdd(ctx, r.keyIndex(), redis.Z{
		Score:  float64(automation.CreatedAt.UnixNano()),
		Member: automation.ID,
	})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save automation %s: %w", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, r.keyAutomation(id))
	pipe.ZRem(ctx, r.keyIndex(), id)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

func decode(id string, data []byte) (*models.Automation, error) {
	var automation models.Automation

	err := json.Unmarshal(data, &automation)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}
