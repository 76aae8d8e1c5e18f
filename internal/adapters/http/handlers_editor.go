package web

import (
	"context"
	"net/http"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/application/projections"
	"dersplan/internal/domain/plan"
)

// editorData is the template data of the flat editor.
func (s *Server) editorData(planID string, f plan.Form, errMsg string) map[string]any {
	action, title := "/plans/quick", "Hızlı Plan"
	if planID != "" {
		action, title = "/plans/"+planID+"/edit", "Planı Düzenle"
	}
	return map[string]any{
		"Title":  title,
		"PlanID": planID,
		"Action": action,
		"Fields": fieldViews(f, plan.FieldKeys()),
		"Error":  errMsg,
	}
}

// handleQuickPage handles GET /plans/quick, the editor without an id.
func (s *Server) handleQuickPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "plan_form.html", s.editorData("", plan.NewForm(s.now()), ""))
}

// handleEditPage handles GET /plans/{id}/edit. A failed load leaves the form
// in its default empty state with the error above it.
func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	f, err := projections.QueryPlanForEdit(ctx, projections.PlanForEditQuery{
		Owner:  middleware.CurrentUserID(ctx),
		PlanID: id,
	}, projections.PlanForEditDeps{PlanStore: s.deps.Plans})
	if err != nil {
		renderTemplate(w, r, statusFor(err, http.StatusInternalServerError), "plan_form.html",
			s.editorData(id, plan.NewForm(s.now()), userMessage(err)))
		return
	}
	renderTemplate(w, r, http.StatusOK, "plan_form.html", s.editorData(id, f, ""))
}

// handleQuickSave handles POST /plans/quick.
func (s *Server) handleQuickSave(w http.ResponseWriter, r *http.Request) {
	s.savePlan(w, r, "")
}

// handleEditSave handles POST /plans/{id}/edit.
func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	s.savePlan(w, r, r.PathValue("id"))
}

// savePlan runs the editor submit. Success shows a banner and moves on to
// the list after the configured delay. The store write outlives the request.
func (s *Server) savePlan(w http.ResponseWriter, r *http.Request, planID string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	sess, _ := middleware.GetSessionFromContext(ctx)
	f := postedForm(r)

	key := "save:" + sess.ID + ":" + planID
	savedID, _, err := s.inflight.Do(key, func() (string, error) {
		res, err := orchestrators.ExecuteSavePlan(ctx, orchestrators.SavePlanInput{
			Owner:  sess.Identity.UserID,
			PlanID: planID,
			Form:   f,
		}, orchestrators.SavePlanDeps{PlanStore: s.deps.Plans})
		return res.PlanID, err
	})
	if err != nil {
		renderTemplate(w, r, statusFor(err, http.StatusBadGateway), "plan_form.html",
			s.editorData(planID, f, userMessage(err)))
		return
	}

	data := s.editorData(savedID, f, "")
	data["Saved"] = true
	data["RedirectURL"] = "/plans?notice=saved"
	data["RedirectDelay"] = s.opts.EditorRedirectDelay
	renderTemplate(w, r, http.StatusOK, "plan_form.html", data)
}
