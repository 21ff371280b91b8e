package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

// RowQuery selects rows of one table.
type RowQuery struct {
	TableID    string
	Filters    models.SearchFilters
	SortColumn string
	SortOrder  models.SortOrder
	Limit      int
}

// RowStore is the table storage the row steps act on.
type RowStore interface {
	Create(ctx context.Context, row models.Row) (models.Row, error)
	Update(ctx context.Context, id string, changes models.Row) (models.Row, error)
	Delete(ctx context.Context, tableID, id string) (models.Row, error)
	Query(ctx context.Context, query RowQuery) ([]models.Row, error)
}

// MemoryRows is an in-memory RowStore. Stored rows carry "_id" and "_rev" fields.
type MemoryRows struct {
	mu    sync.RWMutex
	rows  map[string]models.Row
	order []string
}

func NewMemoryRows() *MemoryRows {
	return &MemoryRows{rows: make(map[string]models.Row)}
}

func (m *MemoryRows) Create(_ context.Context, row models.Row) (models.Row, error) {
	if row.TableID() == "" {
		return nil, ErrMissingTable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := maps.Clone(row)
	stored["_id"] = "ro_" + uuid.NewString()
	stored["_rev"] = revision(1)

	m.rows[stored.ID()] = stored
	m.order = append(m.order, stored.ID())

	return maps.Clone(stored), nil
}

func (m *MemoryRows) Update(_ context.Context, id string, changes models.Row) (models.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}

	if tableID := changes.TableID(); tableID != "" && tableID != existing.TableID() {
		return nil, fmt.Errorf("%w: %s in table %s", ErrRowNotFound, id, tableID)
	}

	updated := maps.Clone(existing)
	for key, value := range changes {
		if key == "_id" || key == "_rev" {
			continue
		}

		updated[key] = value
	}

	updated["_rev"] = revision(generation(existing) + 1)
	m.rows[id] = updated

	return maps.Clone(updated), nil
}

func (m *MemoryRows) Delete(_ context.Context, tableID, id string) (models.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[id]
	if !ok || existing.TableID() != tableID {
		return nil, fmt.Errorf("%w: %s in table %s", ErrRowNotFound, id, tableID)
	}

	delete(m.rows, id)
	m.order = slices.DeleteFunc(m.order, func(candidate string) bool { return candidate == id })

	return existing, nil
}

func (m *MemoryRows) Query(_ context.Context, query RowQuery) ([]models.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]models.Row, 0)

	for _, id := range m.order {
		row := m.rows[id]
		if row.TableID() != query.TableID {
			continue
		}

		if matchFilters(query.Filters, func(key string) any { return row[key] }) {
			rows = append(rows, maps.Clone(row))
		}
	}

	if query.SortColumn != "" {
		slices.SortStableFunc(rows, func(a, b models.Row) int {
			cmp := compareValues(a[query.SortColumn], b[query.SortColumn])
			if query.SortOrder == models.SortDescending {
				return -cmp
			}

			return cmp
		})
	}

	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}

	return rows, nil
}

func revision(generation int) string {
	return strconv.Itoa(generation) + "-" + uuid.NewString()[:8]
}

func generation(row models.Row) int {
	rev, _ := row["_rev"].(string)

	for i, r := range rev {
		if r == '-' {
			n, _ := strconv.Atoi(rev[:i])

			return n
		}
	}

	return 0
}
