package orchestrators

import (
	"context"
	"log/slog"

	"dersplan/internal/domain/plan"
)

// PlanStoreForSave is the store capability needed by the editor.
type PlanStoreForSave interface {
	PlanCreator
	GetByID(ctx context.Context, id string) (plan.Plan, error)
	Update(ctx context.Context, p plan.Plan) error
}

// SavePlanInput carries the editor form. An empty PlanID creates a new plan.
type SavePlanInput struct {
	Owner  string
	PlanID string
	Form   plan.Form
}

// SavePlanResult reports what the editor did.
type SavePlanResult struct {
	PlanID  string
	Created bool
}

// SavePlanDeps holds dependencies for SavePlan.
type SavePlanDeps struct {
	PlanStore PlanStoreForSave
}

// ExecuteSavePlan replaces every editable field of an existing plan, or
// creates a plan when no id is given.
// PRE: none
// POST: one Update (owner kept from the stored row) or one Create (owner from the session)
func ExecuteSavePlan(ctx context.Context, input SavePlanInput, deps SavePlanDeps) (SavePlanResult, error) {
	if input.Owner == "" {
		return SavePlanResult{}, ErrNoActiveSession
	}

	if input.PlanID == "" {
		id, err := ExecuteCreatePlan(ctx, CreatePlanInput{Owner: input.Owner, Form: input.Form},
			CreatePlanDeps{PlanStore: deps.PlanStore})
		if err != nil {
			return SavePlanResult{}, err
		}
		return SavePlanResult{PlanID: id, Created: true}, nil
	}

	existing, err := deps.PlanStore.GetByID(ctx, input.PlanID)
	if err != nil {
		return SavePlanResult{}, err
	}
	if !existing.IsOwnedBy(input.Owner) {
		slog.Warn("plan_event", "event", "update_denied", "plan_id", input.PlanID, "owner", input.Owner)
		return SavePlanResult{}, ErrNotOwner
	}

	p, err := input.Form.ToPlan(existing.Owner)
	if err != nil {
		return SavePlanResult{}, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := p.Validate(); err != nil {
		return SavePlanResult{}, err
	}

	if err := deps.PlanStore.Update(ctx, p); err != nil {
		slog.Error("plan_event", "event", "update_failed", "plan_id", p.ID, "error", err)
		return SavePlanResult{}, err
	}

	slog.Info("plan_event", "event", "updated", "plan_id", p.ID, "owner", input.Owner)
	return SavePlanResult{PlanID: p.ID}, nil
}
