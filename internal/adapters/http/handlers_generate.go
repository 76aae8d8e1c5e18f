package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/domain/plan"
)

func generateData(classLevel, subject, topic, errMsg string) map[string]any {
	return map[string]any{
		"Title":           "Yapay Zekâ ile Plan",
		"ClassLevels":     plan.ClassLevels,
		"Subjects":        plan.Subjects,
		"ClassLevel":      classLevel,
		"Subject":         subject,
		"CurriculumTopic": topic,
		"Error":           errMsg,
	}
}

// handleGeneratePage handles GET /plans/generate.
func (s *Server) handleGeneratePage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "plan_generate.html", generateData("", "", "", ""))
}

// handleGenerate handles POST /plans/generate. On failure the form is shown
// again with the entered values; on success a persistent confirmation is
// shown and the page moves to the list after the configured delay.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	// the webhook call is not cancelled when the browser navigates away
	ctx := context.WithoutCancel(r.Context())
	sess, _ := middleware.GetSessionFromContext(ctx)
	input := orchestrators.SubmitGenerationInput{
		Owner:           sess.Identity.UserID,
		ClassLevel:      r.PostForm.Get(plan.FieldClassLevel),
		Subject:         r.PostForm.Get(plan.FieldSubject),
		CurriculumTopic: r.PostForm.Get(plan.FieldCurriculumTopic),
	}

	stamp, _, err := s.inflight.Do("generate:"+sess.ID, func() (string, error) {
		at, err := orchestrators.ExecuteSubmitGeneration(ctx, input, orchestrators.SubmitGenerationDeps{
			Submitter: s.deps.Submitter,
			Now:       s.now,
		})
		if err != nil {
			return "", err
		}
		return at.Format(time.RFC3339Nano), nil
	})
	if err != nil {
		renderTemplate(w, r, statusFor(err, http.StatusBadGateway), "plan_generate.html",
			generateData(input.ClassLevel, input.Subject, input.CurriculumTopic, userMessage(err)))
		return
	}

	data := generateData(input.ClassLevel, input.Subject, input.CurriculumTopic, "")
	data["Submitted"] = true
	data["RedirectURL"] = "/plans?awaiting=" + url.QueryEscape(stamp)
	data["RedirectDelay"] = s.opts.GenerationRedirectDelay
	renderTemplate(w, r, http.StatusOK, "plan_generate.html", data)
}
