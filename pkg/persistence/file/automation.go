package file

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
)

// AutomationRepository stores one JSON document per automation under <root>/automations.
type AutomationRepository struct {
	mu   sync.RWMutex
	root string
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

func (r *AutomationRepository) dir() string {
	return path.Join(r.root, "automations")
}

func (r *AutomationRepository) filePath(id string) string {
	return filepath.Clean(path.Join(r.dir(), id+".json"))
}

// GetAll returns every stored automation, oldest first.
func (r *AutomationRepository) GetAll(_ context.Context) ([]*models.Automation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list automation files: %w", err)
	}

	automations := make([]*models.Automation, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		automation, err := r.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		automations = append(automations, automation)
	}

	slices.SortFunc(automations, func(a, b *models.Automation) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return automations, nil
}

// GetByID retrieves an automation by its ID from the file system.
func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	if err := checkID(id); err != nil {
		return nil, persistence.NewAutomationError("ByID", id, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

func (r *AutomationRepository) read(id string) (*models.Automation, error) {
	body, err := os.ReadFile(r.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewAutomationError("ByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, fmt.Errorf("failed to fetch automation %s: %w", id, err)
	}

	var automation models.Automation

	err = json.Unmarshal(body, &automation)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}

// Save saves an automation to the file system.
func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	if automation == nil {
		return persistence.NewAutomationError("Save", "", persistence.ErrInvalidAutomation)
	}

	if err := checkID(automation.ID); err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create automations directory: %w", err)
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	return os.WriteFile(r.filePath(automation.ID), data, 0600)
}

// Delete removes an automation by its ID.
func (r *AutomationRepository) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return persistence.NewAutomationError("Delete", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.filePath(id))
	if err != nil && os.IsNotExist(err) {
		return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	return nil
}

// checkID rejects identifiers that would escape the automations directory.
func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return persistence.ErrInvalidAutomation
	}

	return nil
}
