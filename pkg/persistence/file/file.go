// Package file provides file-based persistence for automations.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	automationRepo *AutomationRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		automationRepo: NewAutomationRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Automations(ctx context.Context) ([]*models.Automation, error) {
	return fp.automationRepo.GetAll(ctx)
}

func (fp *Persistence) SaveAutomation(ctx context.Context, automation *models.Automation) error {
	return fp.automationRepo.Save(ctx, automation)
}

func (fp *Persistence) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	return fp.automationRepo.GetByID(ctx, id)
}

func (fp *Persistence) DeleteAutomation(ctx context.Context, id string) error {
	return fp.automationRepo.Delete(ctx, id)
}
