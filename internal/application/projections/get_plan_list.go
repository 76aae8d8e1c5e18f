package projections

import (
	"context"
	"time"

	planstore "dersplan/internal/adapters/storage/plan"
	"dersplan/internal/domain/account"
	"dersplan/internal/domain/plan"
)

// PlanListQuery carries query parameters.
type PlanListQuery struct {
	Owner string
	// AwaitingSince is when the user last submitted a generation job; zero when none.
	AwaitingSince time.Time
}

// PlanCard is one summary card on the list page.
type PlanCard struct {
	ID              string
	Title           string
	ClassLevel      string
	Subject         string
	Date            time.Time
	DurationMinutes int
}

// PlanListResult carries the query result.
type PlanListResult struct {
	Cards []PlanCard
	// Empty is true for a valid session with no plans; the page shows the create-first CTA.
	Empty bool
	// AwaitingGeneration is true while a submitted job has not produced a row yet.
	AwaitingGeneration bool
	// GeneratedPlanID is the newest plan created since AwaitingSince, if any.
	GeneratedPlanID string
}

// PlanListDeps holds dependencies for PlanList.
type PlanListDeps struct {
	PlanStore      PlanReader
	AwaitingWindow time.Duration
	Now            func() time.Time
}

// QueryPlanList returns the owner's plans, newest date first.
// PRE: none
// POST: only plans owned by query.Owner are returned
// INVARIANT: AwaitingGeneration is never true once the awaiting window has passed
func QueryPlanList(ctx context.Context, query PlanListQuery, deps PlanListDeps) (PlanListResult, error) {
	if query.Owner == "" {
		return PlanListResult{}, account.ErrNoActiveSession
	}

	plans, err := deps.PlanStore.List(ctx, planstore.ListFilter{Owner: query.Owner})
	if err != nil {
		return PlanListResult{}, err
	}

	result := PlanListResult{Cards: make([]PlanCard, 0, len(plans))}
	for _, p := range plans {
		if !p.IsOwnedBy(query.Owner) {
			continue
		}
		result.Cards = append(result.Cards, cardFor(p))
	}
	result.Empty = len(result.Cards) == 0

	if query.AwaitingSince.IsZero() {
		return result, nil
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if now().Sub(query.AwaitingSince) > deps.AwaitingWindow {
		return result, nil
	}

	recent, err := deps.PlanStore.List(ctx, planstore.ListFilter{
		Owner:        query.Owner,
		CreatedAfter: query.AwaitingSince,
	})
	if err != nil {
		return PlanListResult{}, err
	}
	var newest plan.Plan
	for _, p := range recent {
		if p.IsOwnedBy(query.Owner) && p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest.ID != "" {
		result.GeneratedPlanID = newest.ID
	} else {
		result.AwaitingGeneration = true
	}
	return result, nil
}

func cardFor(p plan.Plan) PlanCard {
	return PlanCard{
		ID:              p.ID,
		Title:           p.Title,
		ClassLevel:      p.ClassLevel,
		Subject:         p.Subject,
		Date:            p.Date,
		DurationMinutes: p.DurationMinutes,
	}
}
