package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/domain/plan"
	"dersplan/internal/domain/wizard"
)

// Wizard form actions.
const (
	actionNext   = "next"
	actionBack   = "back"
	actionSubmit = "submit"
	actionCancel = "cancel"
)

// wizardPendingURL is where a submit lands while another submit of the same
// wizard is still being stored.
const wizardPendingURL = "/plans/new?pending=1"

// pendingRefresh is how often the pending page checks the submit again.
const pendingRefresh = time.Second

// stepView is one entry of the step indicator.
type stepView struct {
	Number  int
	Title   string
	Current bool
	Done    bool
}

func steps(current int) []stepView {
	out := make([]stepView, 0, wizard.StageCount)
	for i := 1; i <= wizard.StageCount; i++ {
		out = append(out, stepView{
			Number:  i,
			Title:   wizard.StageTitle(wizard.State(i)),
			Current: i == current,
			Done:    i < current,
		})
	}
	return out
}

// loadWizard returns the session's wizard, starting a new one when there is
// none or the last one finished.
func (s *Server) loadWizard(r *http.Request, sess middleware.Session) *wizard.Wizard {
	wz, ok := s.deps.Drafts.Get(r.Context(), sess.ID)
	if !ok || wz.State == wizard.Done {
		wz = wizard.New(plan.NewForm(s.now()))
		s.deps.Drafts.Put(r.Context(), sess.ID, wz)
	}
	return wz
}

func (s *Server) renderWizard(w http.ResponseWriter, r *http.Request, status int, wz *wizard.Wizard, errMsg string) {
	if errMsg == "" {
		errMsg = wz.LastError
	}
	stage := wz.Stage()
	data := map[string]any{
		"Title":      "Yeni Plan",
		"Steps":      steps(stage),
		"Stage":      stage,
		"StageTitle": wizard.StageTitle(wizard.State(stage)),
		"Fields":     fieldViews(wz.Draft, wizard.StageFields(wizard.State(stage))),
		"IsFirst":    stage == 1,
		"IsLast":     stage == wizard.StageCount,
		"Busy":       wz.State == wizard.Submitting,
		"Error":      errMsg,
	}
	if wz.State == wizard.Submitting {
		data["PendingURL"] = wizardPendingURL
		data["PendingDelay"] = pendingRefresh
	}
	renderTemplate(w, r, status, "plan_wizard.html", data)
}

// handleWizardPage handles GET /plans/new. With ?pending it follows a submit
// that is still being stored and moves on to the list once it is done.
func (s *Server) handleWizardPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if r.URL.Query().Has("pending") {
		if wz, ok := s.deps.Drafts.Get(r.Context(), sess.ID); ok && wz.State == wizard.Done {
			http.Redirect(w, r, "/plans?notice=created", http.StatusSeeOther)
			return
		}
	}
	s.renderWizard(w, r, http.StatusOK, s.loadWizard(r, sess), "")
}

// handleWizard handles POST /plans/new. The posted fields of the current
// stage are merged into the draft before the action runs, so going back
// keeps what was typed.
func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)
	action := r.PostForm.Get("action")

	if action == actionCancel {
		s.deps.Drafts.Discard(ctx, sess.ID)
		http.Redirect(w, r, "/plans", http.StatusSeeOther)
		return
	}

	wz, ok := s.deps.Drafts.Get(ctx, sess.ID)
	switch {
	case ok && wz.State == wizard.Done && action == actionSubmit:
		// repeated submit of a wizard that already created its plan
		http.Redirect(w, r, "/plans?notice=created", http.StatusSeeOther)
		return
	case !ok || wz.State == wizard.Done:
		wz = wizard.New(plan.NewForm(s.now()))
	}
	if err := wz.Edit(postedValues(r, wizard.StageFields(wz.State))); err != nil {
		if errors.Is(err, wizard.ErrBusy) && action == actionSubmit {
			http.Redirect(w, r, wizardPendingURL, http.StatusSeeOther)
			return
		}
		s.renderWizard(w, r, statusFor(err, http.StatusConflict), wz, userMessage(err))
		return
	}

	var err error
	switch action {
	case actionNext:
		err = wz.Next()
	case actionBack:
		err = wz.Back()
	case actionSubmit:
		s.submitWizard(w, r, sess, wz)
		return
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}
	s.deps.Drafts.Put(ctx, sess.ID, wz)
	if err != nil {
		s.renderWizard(w, r, statusFor(err, http.StatusUnprocessableEntity), wz, userMessage(err))
		return
	}
	http.Redirect(w, r, "/plans/new", http.StatusSeeOther)
}

// submitWizard performs the single create of the wizard. A second submit
// arriving while the first is running shares its result. The create is not
// tied to the request, so it completes even if the browser goes away.
func (s *Server) submitWizard(w http.ResponseWriter, r *http.Request, sess middleware.Session, wz *wizard.Wizard) {
	ctx := context.WithoutCancel(r.Context())
	if err := wz.BeginSubmit(); err != nil {
		if errors.Is(err, wizard.ErrBusy) {
			http.Redirect(w, r, wizardPendingURL, http.StatusSeeOther)
			return
		}
		s.renderWizard(w, r, statusFor(err, http.StatusConflict), wz, userMessage(err))
		return
	}
	s.deps.Drafts.Put(ctx, sess.ID, wz)

	id, shared, err := s.inflight.Do("wizard:"+sess.ID, func() (string, error) {
		return orchestrators.ExecuteCreatePlan(ctx, orchestrators.CreatePlanInput{
			Owner: sess.Identity.UserID,
			Form:  wz.Draft,
		}, orchestrators.CreatePlanDeps{PlanStore: s.deps.Plans})
	})
	if shared {
		slog.Debug("plan_event", "event", "wizard_submit_shared", "session_id", sess.ID)
	}
	if err != nil {
		wz.Fail(err)
		wz.LastError = userMessage(err)
		s.deps.Drafts.Put(ctx, sess.ID, wz)
		s.renderWizard(w, r, statusFor(err, http.StatusBadGateway), wz, "")
		return
	}

	wz.Complete(id)
	s.deps.Drafts.Put(ctx, sess.ID, wz)
	http.Redirect(w, r, "/plans?notice=created", http.StatusSeeOther)
}
