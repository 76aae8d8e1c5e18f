package projections

import (
	"context"

	planstore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/domain/plan"
)

// PlanReader is the read side of the plan store.
type PlanReader interface {
	GetByID(ctx context.Context, id string) (plan.Plan, error)
	List(ctx context.Context, filter planstore.ListFilter) ([]plan.Plan, error)
}

// loadOwnedPlan fetches a plan and hides plans of other users behind ErrNotFound.
func loadOwnedPlan(ctx context.Context, store PlanReader, owner, id string) (plan.Plan, error) {
	if id == "" {
		return plan.Plan{}, plan.ErrNotFound
	}
	p, err := store.GetByID(ctx, id)
	if err != nil {
		return plan.Plan{}, err
	}
	if !p.IsOwnedBy(owner) {
		return plan.Plan{}, plan.ErrNotFound
	}
	return p, nil
}
