package projections

import (
	"context"

	"dersplan/internal/domain/account"
	"dersplan/internal/domain/plan"
)

// PlanDetailQuery carries query parameters.
type PlanDetailQuery struct {
	Owner  string
	PlanID string
}

// PlanDetailResult carries the query result.
type PlanDetailResult struct {
	Plan   plan.Plan
	Panels []plan.Panel // curriculum topic first, then non-empty sections in declared order
}

// PlanDetailDeps holds dependencies for PlanDetail.
type PlanDetailDeps struct {
	PlanStore PlanReader
}

// QueryPlanDetail loads one plan with its visible panels.
// PRE: none
// POST: plan.ErrNotFound when the plan is missing or owned by someone else
func QueryPlanDetail(ctx context.Context, query PlanDetailQuery, deps PlanDetailDeps) (PlanDetailResult, error) {
	if query.Owner == "" {
		return PlanDetailResult{}, account.ErrNoActiveSession
	}
	p, err := loadOwnedPlan(ctx, deps.PlanStore, query.Owner, query.PlanID)
	if err != nil {
		return PlanDetailResult{}, err
	}
	return PlanDetailResult{Plan: p, Panels: p.Panels()}, nil
}
