package orchestrators

import (
	"context"
	"log/slog"

	"dersplan/internal/domain/plan"
)

// PlanStoreForDelete is the store capability needed to delete plans.
type PlanStoreForDelete interface {
	GetByID(ctx context.Context, id string) (plan.Plan, error)
	Delete(ctx context.Context, id string) error
}

// DeletePlanInput identifies the plan to delete.
type DeletePlanInput struct {
	Owner  string
	PlanID string
}

// DeletePlanDeps holds dependencies for DeletePlan.
type DeletePlanDeps struct {
	PlanStore PlanStoreForDelete
}

// ExecuteDeletePlan removes a plan the session user owns.
// PRE: the user confirmed the deletion
// POST: Delete is called only for a plan owned by input.Owner
func ExecuteDeletePlan(ctx context.Context, input DeletePlanInput, deps DeletePlanDeps) error {
	if input.Owner == "" {
		return ErrNoActiveSession
	}

	p, err := deps.PlanStore.GetByID(ctx, input.PlanID)
	if err != nil {
		return err
	}
	if !p.IsOwnedBy(input.Owner) {
		slog.Warn("plan_event", "event", "delete_denied", "plan_id", input.PlanID, "owner", input.Owner)
		return ErrNotOwner
	}

	if err := deps.PlanStore.Delete(ctx, p.ID); err != nil {
		slog.Error("plan_event", "event", "delete_failed", "plan_id", p.ID, "error", err)
		return err
	}

	slog.Info("plan_event", "event", "deleted", "plan_id", p.ID, "owner", input.Owner)
	return nil
}
