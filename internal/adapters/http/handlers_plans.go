package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/application/projections"
)

// List notices selected by ?notice=.
var listNotices = map[string]string{
	"created":       "Plan oluşturuldu.",
	"saved":         "Plan kaydedildi.",
	"deleted":       "Plan silindi.",
	"delete_failed": "Plan silinemedi. Lütfen tekrar deneyin.",
}

// awaitingPollSeconds is how often the list reloads while a generated plan is awaited.
const awaitingPollSeconds = 10

// handlePlanList handles GET /plans.
func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := projections.PlanListQuery{Owner: middleware.CurrentUserID(ctx)}
	if raw := q.Get("awaiting"); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			query.AwaitingSince = t
		}
	}

	result, err := projections.QueryPlanList(ctx, query, projections.PlanListDeps{
		PlanStore:      s.deps.Plans,
		AwaitingWindow: s.opts.AwaitingWindow,
		Now:            s.now,
	})
	if err != nil {
		slog.Error("plan_event", "event", "list_failed", "owner", query.Owner, "error", err)
		renderTemplate(w, r, statusFor(err, http.StatusInternalServerError), "plan_list.html", map[string]any{
			"Title": "Planlarım",
			"Error": userMessage(err),
		})
		return
	}

	data := map[string]any{
		"Title":  "Planlarım",
		"Result": result,
		"Notice": listNotices[q.Get("notice")],
	}
	if result.AwaitingGeneration {
		data["RefreshSeconds"] = awaitingPollSeconds
		data["RefreshURL"] = "/plans?awaiting=" + url.QueryEscape(query.AwaitingSince.Format(time.RFC3339Nano))
	}
	renderTemplate(w, r, http.StatusOK, "plan_list.html", data)
}

// handlePlanDetail handles GET /plans/{id}.
func (s *Server) handlePlanDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := projections.QueryPlanDetail(ctx, projections.PlanDetailQuery{
		Owner:  middleware.CurrentUserID(ctx),
		PlanID: r.PathValue("id"),
	}, projections.PlanDetailDeps{PlanStore: s.deps.Plans})
	if err != nil {
		renderTemplate(w, r, statusFor(err, http.StatusInternalServerError), "plan_detail.html", map[string]any{
			"Title": "Plan",
			"Error": userMessage(err),
		})
		return
	}
	renderTemplate(w, r, http.StatusOK, "plan_detail.html", map[string]any{
		"Title":  result.Plan.Title,
		"Plan":   result.Plan,
		"Panels": result.Panels,
	})
}

// handleDeletePage handles GET /plans/{id}/delete, the confirmation step.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := projections.QueryPlanDetail(ctx, projections.PlanDetailQuery{
		Owner:  middleware.CurrentUserID(ctx),
		PlanID: r.PathValue("id"),
	}, projections.PlanDetailDeps{PlanStore: s.deps.Plans})
	if err != nil {
		errorPage(w, r, statusFor(err, http.StatusInternalServerError), userMessage(err))
		return
	}
	renderTemplate(w, r, http.StatusOK, "plan_delete.html", map[string]any{
		"Title": "Planı Sil",
		"Plan":  result.Plan,
	})
}

// handleDelete handles POST /plans/{id}/delete. Any failure leaves the list
// unchanged and shows a generic notice.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	id := r.PathValue("id")
	owner := middleware.CurrentUserID(ctx)

	_, _, err := s.inflight.Do("delete:"+owner+":"+id, func() (string, error) {
		return "", orchestrators.ExecuteDeletePlan(ctx, orchestrators.DeletePlanInput{Owner: owner, PlanID: id},
			orchestrators.DeletePlanDeps{PlanStore: s.deps.Plans})
	})
	if err != nil {
		slog.Warn("plan_event", "event", "delete_failed", "plan_id", id, "owner", owner, "error", err)
		http.Redirect(w, r, "/plans?notice=delete_failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/plans?notice=deleted", http.StatusSeeOther)
}
