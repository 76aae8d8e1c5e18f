package plan

import (
	"context"
	"time"

	domain "dersplan/internal/domain/plan"
)

// Store persists lesson plans. Every record-level mutation is one call.
type Store interface {
	// Create inserts p and returns the identifier the store assigned.
	Create(ctx context.Context, p domain.Plan) (string, error)
	// Update replaces every editable field of the plan with id p.ID. The owner is never changed.
	Update(ctx context.Context, p domain.Plan) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Plan, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Plan, error)
}

// ListFilter carries filtering parameters for List operations.
// Results are ordered by date descending, newest record first on ties.
type ListFilter struct {
	Owner        string
	CreatedAfter time.Time // zero means no lower bound
	Limit        int       // 0 means no limit
}
