package projections

import (
	"context"

	"dersplan/internal/domain/account"
	"dersplan/internal/domain/plan"
)

// PlanForEditQuery carries query parameters.
type PlanForEditQuery struct {
	Owner  string
	PlanID string
}

// PlanForEditDeps holds dependencies for PlanForEdit.
type PlanForEditDeps struct {
	PlanStore PlanReader
}

// QueryPlanForEdit seeds the editor form from a stored plan, field for field.
// PRE: none
// POST: duration is the stored integer rendered in base 10
func QueryPlanForEdit(ctx context.Context, query PlanForEditQuery, deps PlanForEditDeps) (plan.Form, error) {
	if query.Owner == "" {
		return plan.Form{}, account.ErrNoActiveSession
	}
	p, err := loadOwnedPlan(ctx, deps.PlanStore, query.Owner, query.PlanID)
	if err != nil {
		return plan.Form{}, err
	}
	return plan.FormFromPlan(p), nil
}
