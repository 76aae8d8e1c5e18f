package orchestrators

import (
	"context"
	"log/slog"

	"dersplan/internal/domain/plan"
)

// PlanCreator is the store capability needed to create plans.
type PlanCreator interface {
	Create(ctx context.Context, p plan.Plan) (string, error)
}

// CreatePlanInput carries the wizard's final draft.
type CreatePlanInput struct {
	Owner string // session user id, empty when signed out
	Form  plan.Form
}

// CreatePlanDeps holds dependencies for CreatePlan.
type CreatePlanDeps struct {
	PlanStore PlanCreator
}

// ExecuteCreatePlan turns a draft into a stored plan.
// PRE: none
// POST: exactly one Create call with Owner = input.Owner and an integer duration,
// or no call at all when the session is missing or the draft is invalid
// INVARIANT: store errors are returned unwrapped so their message reaches the user as is
func ExecuteCreatePlan(ctx context.Context, input CreatePlanInput, deps CreatePlanDeps) (string, error) {
	if input.Owner == "" {
		return "", ErrNoActiveSession
	}

	p, err := input.Form.ToPlan(input.Owner)
	if err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	id, err := deps.PlanStore.Create(ctx, p)
	if err != nil {
		slog.Error("plan_event", "event", "create_failed", "owner", input.Owner, "error", err)
		return "", err
	}

	slog.Info("plan_event", "event", "created", "plan_id", id, "owner", input.Owner)
	return id, nil
}
