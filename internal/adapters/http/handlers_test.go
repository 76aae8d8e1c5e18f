package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	generationAdapter "dersplan/internal/adapters/generation"
	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/domain/account"
	"dersplan/internal/domain/plan"
	"dersplan/internal/domain/wizard"
)

func TestPlanList_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodGet, "/plans", nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("status = %d location = %q, want redirect to /login", rr.Code, rr.Header().Get("Location"))
	}
}

func TestPlanList_EmptyShowsCallToAction(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/plans", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `id="empty-state"`) {
		t.Error("empty list should render the create-first call to action")
	}
	if strings.Contains(body, `class="error"`) {
		t.Error("empty list must not render an error")
	}
}

func TestLayout_NavigationMarksCurrentScreen(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		path   string
		active string
	}{
		{"/plans", `<a href="/plans" class="active" aria-current="page">Planlarım</a>`},
		{"/plans/new", `<a href="/plans/new" class="active" aria-current="page">Yeni Plan</a>`},
		{"/plans/generate", `<a href="/plans/generate" class="active" aria-current="page">Yapay Zekâ ile Plan</a>`},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			body := env.do(t, http.MethodGet, tc.path, nil).Body.String()
			if !strings.Contains(body, tc.active) {
				t.Errorf("%s should mark its own nav entry", tc.path)
			}
			if n := strings.Count(body, `class="active"`); n != 1 {
				t.Errorf("active entries = %d, want 1", n)
			}
			for _, href := range []string{`href="/plans"`, `href="/plans/new"`, `href="/plans/generate"`} {
				if !strings.Contains(body, href) {
					t.Errorf("nav link %s missing", href)
				}
			}
		})
	}

	anon := env.doAnon(t, http.MethodGet, "/login", nil).Body.String()
	if strings.Contains(anon, "<nav>") {
		t.Error("navigation is only shown to signed-in users")
	}
}

func TestPlanList_OnlyOwnPlans(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-mine", "u-1"))
	other := samplePlan("p-other", "u-2")
	other.Title = "Başkasının Planı"
	env.plans.put(other)

	rr := env.do(t, http.MethodGet, "/plans", nil)
	body := rr.Body.String()
	if !strings.Contains(body, "Kesirlerle Tanışma") {
		t.Error("own plan missing from list")
	}
	if strings.Contains(body, "Başkasının Planı") {
		t.Error("list shows a plan owned by another user")
	}
	if !strings.Contains(body, "12 Mart 2024") || !strings.Contains(body, "45 dk") {
		t.Error("card should show the formatted date and duration")
	}
}

func TestPlanList_StoreErrorRendersInline(t *testing.T) {
	env := newTestEnv(t)
	env.plans.listErr = errStoreDown
	rr := env.do(t, http.MethodGet, "/plans", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, errStoreDown.Error()) || !strings.Contains(body, "Tekrar dene") {
		t.Error("list error should show the store message and a retry control")
	}
	if strings.Contains(body, `id="empty-state"`) {
		t.Error("error state must be distinct from the empty state")
	}
}

func TestPlanList_Notices(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/plans?notice=delete_failed", nil)
	if !strings.Contains(rr.Body.String(), "Plan silinemedi") {
		t.Error("delete failure notice missing")
	}
	rr = env.do(t, http.MethodGet, "/plans?notice=%3Cb%3Ehi%3C%2Fb%3E", nil)
	if strings.Contains(rr.Body.String(), `<p class="notice">`) {
		t.Error("unknown notice must not be shown")
	}
}

func TestPlanList_AwaitingGeneration(t *testing.T) {
	env := newTestEnv(t)
	since := time.Now().Add(-time.Minute).UTC()
	target := "/plans?awaiting=" + url.QueryEscape(since.Format(time.RFC3339Nano))

	rr := env.do(t, http.MethodGet, target, nil)
	body := rr.Body.String()
	if !strings.Contains(body, "data-redirect=") || !strings.Contains(body, `data-delay-ms="10000"`) {
		t.Error("awaiting list should poll again in 10 seconds")
	}

	generated := samplePlan("p-gen", "u-1")
	generated.CreatedAt = time.Now()
	env.plans.put(generated)

	rr = env.do(t, http.MethodGet, target, nil)
	body = rr.Body.String()
	if strings.Contains(body, `data-delay-ms="10000"`) {
		t.Error("list keeps polling after the generated plan arrived")
	}
	if !strings.Contains(body, `href="/plans/p-gen"`) {
		t.Error("generated plan link missing")
	}
}

func TestPlanDetail_PanelsForNonEmptySections(t *testing.T) {
	env := newTestEnv(t)
	p := samplePlan("p-1", "u-1")
	p.Sections[plan.SectionObjectives] = "**Kesirleri** tanır"
	env.plans.put(p)

	rr := env.do(t, http.MethodGet, "/plans/p-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if n := strings.Count(body, `<details class="panel"`); n != 2 {
		t.Fatalf("panels = %d, want 2", n)
	}
	topic := strings.Index(body, `data-section="curriculum_topic"`)
	objectives := strings.Index(body, `data-section="kazanimlar"`)
	if topic < 0 || objectives < 0 || topic > objectives {
		t.Error("panels should be curriculum topic then kazanimlar")
	}
	if !strings.Contains(body, "<strong>Kesirleri</strong>") {
		t.Error("panel markup should render bold text")
	}
	if !strings.Contains(body, "12 Mart 2024") || !strings.Contains(body, "45 dakika") {
		t.Error("summary should show formatted date and duration")
	}
}

func TestPlanDetail_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-foreign", "u-2"))

	for _, id := range []string{"missing", "p-foreign"} {
		t.Run(id, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/plans/"+id, nil)
			if rr.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, "Plan bulunamadı.") || !strings.Contains(body, `href="/plans"`) {
				t.Error("not found should show the message and a return-to-list control")
			}
			if strings.Contains(body, `<details class="panel"`) {
				t.Error("not found must render no panels")
			}
		})
	}
}

func stageOne(classLevel, subject string) url.Values {
	return url.Values{
		"action":      {"next"},
		"class_level": {classLevel},
		"subject":     {subject},
		"date":        {"2024-03-12"},
		"duration":    {"45"},
	}
}

func (env *testEnv) wizardState(t *testing.T) *wizard.Wizard {
	t.Helper()
	wz, ok := env.drafts.Get(context.Background(), env.session.ID)
	if !ok {
		t.Fatal("no wizard draft for session")
	}
	return wz
}

func TestWizard_StageOneGate(t *testing.T) {
	tests := []struct {
		name       string
		classLevel string
		subject    string
	}{
		{"no class level", "", "Matematik"},
		{"no subject", "5. Sınıf", ""},
		{"neither", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, http.MethodPost, "/plans/new", stageOne(tt.classLevel, tt.subject))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "sınıf seviyesi ve ders seçin") {
				t.Error("gate message missing")
			}
			if wz := env.wizardState(t); wz.State != wizard.Stage1 {
				t.Errorf("state = %v, want Stage1", wz.State)
			}
		})
	}
}

func walkToLastStage(t *testing.T, env *testEnv) {
	t.Helper()
	steps := []url.Values{
		stageOne("5. Sınıf", "Matematik"),
		{"action": {"next"}, "title": {"Kesirler"}, "curriculum_topic": {"Kesir kavramı"}, "kazanimlar": {"Kesirleri tanır"}},
		{"action": {"next"}, "tasavvurat": {"Pizza dilimleri"}},
	}
	for i, form := range steps {
		rr := env.do(t, http.MethodPost, "/plans/new", form)
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("step %d: status = %d, want 303: %s", i+1, rr.Code, rr.Body.String())
		}
	}
	if wz := env.wizardState(t); wz.State != wizard.Stage4 {
		t.Fatalf("state = %v, want Stage4", wz.State)
	}
}

func TestWizard_SubmitCreatesOnce(t *testing.T) {
	env := newTestEnv(t)
	walkToLastStage(t, env)

	rr := env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}, "etkinlikler": {"Kesir oyunu"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/plans?notice=created" {
		t.Fatalf("status = %d location = %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(env.plans.creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(env.plans.creates))
	}
	got := env.plans.creates[0]
	if got.Owner != "u-1" || got.DurationMinutes != 45 {
		t.Errorf("created owner=%q duration=%d", got.Owner, got.DurationMinutes)
	}
	if got.Section(plan.SectionEnvisioning) != "Pizza dilimleri" || got.Section(plan.SectionActivities) != "Kesir oyunu" {
		t.Errorf("sections = %v", got.Sections)
	}

	// a repeated submit of the finished wizard does not create again
	env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}})
	if len(env.plans.creates) != 1 {
		t.Errorf("creates after resubmit = %d, want 1", len(env.plans.creates))
	}
}

func TestWizard_SubmitWhileStoringFollowsFirstSubmit(t *testing.T) {
	env := newTestEnv(t)
	walkToLastStage(t, env)
	ctx := context.Background()

	wz := env.wizardState(t)
	if err := wz.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit() error: %v", err)
	}
	env.drafts.Put(ctx, env.session.ID, wz)

	rr := env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != wizardPendingURL {
		t.Fatalf("status = %d location = %q, want redirect to %s", rr.Code, rr.Header().Get("Location"), wizardPendingURL)
	}
	if len(env.plans.creates) != 0 {
		t.Errorf("creates = %d, want 0 while the first submit runs", len(env.plans.creates))
	}

	rr = env.do(t, http.MethodGet, wizardPendingURL, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `data-redirect="/plans/new?pending=1"`) {
		t.Errorf("pending page should keep checking the submit: %d", rr.Code)
	}

	wz.Complete("p-9")
	env.drafts.Put(ctx, env.session.ID, wz)
	rr = env.do(t, http.MethodGet, wizardPendingURL, nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/plans?notice=created" {
		t.Errorf("status = %d location = %q, want the list once stored", rr.Code, rr.Header().Get("Location"))
	}

	// without ?pending a finished wizard starts over
	rr = env.do(t, http.MethodGet, "/plans/new", nil)
	if rr.Code != http.StatusOK || env.wizardState(t).State != wizard.Stage1 {
		t.Errorf("status = %d, want a fresh wizard", rr.Code)
	}
}

func TestWizard_SubmitCompletesAfterClientLeaves(t *testing.T) {
	env := newTestEnv(t)
	walkToLastStage(t, env)

	env.doAbandoned(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}})
	if len(env.plans.creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(env.plans.creates))
	}
	if env.wizardState(t).State != wizard.Done {
		t.Errorf("state = %v, want Done", env.wizardState(t).State)
	}
}

func TestWizard_SubmitFailureKeepsDraft(t *testing.T) {
	env := newTestEnv(t)
	walkToLastStage(t, env)

	env.plans.failErr = errStoreDown
	rr := env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}})
	if !strings.Contains(rr.Body.String(), errStoreDown.Error()) {
		t.Error("store message should be shown verbatim")
	}
	wz := env.wizardState(t)
	if wz.State != wizard.Failed || wz.Draft.Title != "Kesirler" {
		t.Errorf("state = %v title = %q, want Failed with draft kept", wz.State, wz.Draft.Title)
	}

	env.plans.failErr = nil
	rr = env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"submit"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("retry status = %d", rr.Code)
	}
	if len(env.plans.creates) != 1 {
		t.Errorf("creates = %d, want 1", len(env.plans.creates))
	}
}

func TestWizard_BackKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/plans/new", stageOne("7. Sınıf", "Fizik"))
	env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"back"}, "title": {"Kuvvet"}})

	wz := env.wizardState(t)
	if wz.State != wizard.Stage1 || wz.Draft.Title != "Kuvvet" || wz.Draft.Subject != "Fizik" {
		t.Errorf("wizard = %+v", wz)
	}
	rr := env.do(t, http.MethodGet, "/plans/new", nil)
	if !strings.Contains(rr.Body.String(), `<option value="Fizik" selected>`) {
		t.Error("stage 1 should show the chosen subject")
	}
}

func TestWizard_Cancel(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/plans/new", stageOne("7. Sınıf", "Fizik"))
	rr := env.do(t, http.MethodPost, "/plans/new", url.Values{"action": {"cancel"}})
	if rr.Header().Get("Location") != "/plans" {
		t.Errorf("location = %q", rr.Header().Get("Location"))
	}
	if _, ok := env.drafts.Get(context.Background(), env.session.ID); ok {
		t.Error("cancel should discard the draft")
	}
}

func TestEditor_LoadPopulatesFields(t *testing.T) {
	env := newTestEnv(t)
	p := samplePlan("p-1", "u-1")
	p.Sections[plan.SectionOralCulture] = "Mani"
	env.plans.put(p)

	rr := env.do(t, http.MethodGet, "/plans/p-1/edit", nil)
	body := rr.Body.String()
	for _, want := range []string{
		`name="title" type="text" value="Kesirlerle Tanışma"`,
		`name="date" type="date" value="2024-03-12"`,
		`name="duration" type="number" min="15" max="180" step="1" value="45"`,
		`<option value="5. Sınıf" selected>`,
		`<textarea id="f-sozlu_kultur" name="sozlu_kultur">Mani</textarea>`,
		`action="/plans/p-1/edit"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing %s", want)
		}
	}
}

func TestEditor_LoadFailureLeavesDefaultForm(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/plans/missing/edit", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Plan bulunamadı.") {
		t.Error("load error not shown")
	}
	if !strings.Contains(body, `name="title" type="text" value=""`) {
		t.Error("form should be left empty")
	}
}

func editorForm(duration string) url.Values {
	return url.Values{
		"title":            {"Oranlar"},
		"date":             {"2024-04-02"},
		"class_level":      {"6. Sınıf"},
		"subject":          {"Matematik"},
		"curriculum_topic": {"Oran orantı"},
		"duration":         {duration},
		"deliller":         {"- Tarif\n- Harita"},
	}
}

func TestEditor_QuickCreateCoercesDuration(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/plans/quick", editorForm("45"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if len(env.plans.creates) != 1 || env.plans.creates[0].DurationMinutes != 45 {
		t.Fatalf("creates = %+v", env.plans.creates)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-redirect="/plans?notice=saved"`) || !strings.Contains(body, `data-delay-ms="1500"`) {
		t.Error("save should show the banner and move to the list after 1.5s")
	}
}

func TestEditor_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/plans/quick", editorForm("200"))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "15 ile 180 dakika") {
		t.Error("range message missing")
	}
	if !strings.Contains(rr.Body.String(), `value="Oranlar"`) {
		t.Error("entered values should be kept")
	}
	if len(env.plans.creates) != 0 {
		t.Error("invalid form must not reach the store")
	}
}

func TestEditor_UpdateKeepsOwner(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-1", "u-1"))

	rr := env.do(t, http.MethodPost, "/plans/p-1/edit", editorForm("90"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if len(env.plans.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(env.plans.updates))
	}
	got := env.plans.updates[0]
	if got.ID != "p-1" || got.Owner != "u-1" || got.Title != "Oranlar" || got.DurationMinutes != 90 {
		t.Errorf("updated plan = %+v", got)
	}
}

func TestEditor_ForeignPlanNotUpdated(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-foreign", "u-2"))

	rr := env.do(t, http.MethodPost, "/plans/p-foreign/edit", editorForm("90"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if len(env.plans.updates) != 0 {
		t.Error("plan of another user was updated")
	}
}

func TestDelete_OnlyOwnPlans(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-mine", "u-1"))
	env.plans.put(samplePlan("p-foreign", "u-2"))

	rr := env.do(t, http.MethodPost, "/plans/p-foreign/delete", url.Values{})
	if rr.Header().Get("Location") != "/plans?notice=delete_failed" {
		t.Errorf("foreign delete location = %q", rr.Header().Get("Location"))
	}
	rr = env.do(t, http.MethodPost, "/plans/p-mine/delete", url.Values{})
	if rr.Header().Get("Location") != "/plans?notice=deleted" {
		t.Errorf("own delete location = %q", rr.Header().Get("Location"))
	}
	if len(env.plans.deletes) != 1 || env.plans.deletes[0] != "p-mine" {
		t.Errorf("deletes = %v, want [p-mine]", env.plans.deletes)
	}
}

func TestMutations_CompleteAfterClientLeaves(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-1", "u-1"))
	env.plans.put(samplePlan("p-2", "u-1"))

	env.doAbandoned(t, http.MethodPost, "/plans/quick", editorForm("45"))
	if len(env.plans.creates) != 1 {
		t.Errorf("quick creates = %d, want 1", len(env.plans.creates))
	}
	env.doAbandoned(t, http.MethodPost, "/plans/p-1/edit", editorForm("90"))
	if len(env.plans.updates) != 1 {
		t.Errorf("updates = %d, want 1", len(env.plans.updates))
	}
	env.doAbandoned(t, http.MethodPost, "/plans/p-2/delete", url.Values{})
	if len(env.plans.deletes) != 1 {
		t.Errorf("deletes = %d, want 1", len(env.plans.deletes))
	}
}

func TestDelete_ConfirmationPage(t *testing.T) {
	env := newTestEnv(t)
	env.plans.put(samplePlan("p-1", "u-1"))

	rr := env.do(t, http.MethodGet, "/plans/p-1/delete", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `action="/plans/p-1/delete"`) {
		t.Errorf("confirmation page: status = %d", rr.Code)
	}
	if len(env.plans.deletes) != 0 {
		t.Error("GET must not delete")
	}
}

func generateForm() url.Values {
	return url.Values{
		"class_level":      {"8. Sınıf"},
		"subject":          {"Fen Bilimleri"},
		"curriculum_topic": {"Basınç"},
	}
}

func TestGenerate_RejectedKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	env.submitter.err = &generationAdapter.RejectedError{StatusCode: 500, Body: "workflow crashed"}
	rr := env.do(t, http.MethodPost, "/plans/generate", generateForm())
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `class="error"`) {
		t.Error("error not shown")
	}
	if strings.Contains(body, "data-redirect=") {
		t.Error("failed request must not navigate")
	}
	for _, want := range []string{
		`<option value="8. Sınıf" selected>`,
		`<option value="Fen Bilimleri" selected>`,
		`value="Basınç"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form lost %s", want)
		}
	}
}

func TestGenerate_Accepted(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/plans/generate", generateForm())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if len(env.submitter.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(env.submitter.jobs))
	}
	job := env.submitter.jobs[0]
	if job.Owner != "u-1" || job.ClassLevel != "8. Sınıf" || job.Subject != "Fen Bilimleri" || job.CurriculumTopic != "Basınç" {
		t.Errorf("job = %+v", job)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-redirect="/plans?awaiting=`) || !strings.Contains(body, `data-delay-ms="5000"`) {
		t.Error("accepted request should move to the awaiting list after 5s")
	}
}

func TestGenerate_SubmitsAfterClientLeaves(t *testing.T) {
	env := newTestEnv(t)
	env.doAbandoned(t, http.MethodPost, "/plans/generate", generateForm())
	if len(env.submitter.jobs) != 1 {
		t.Errorf("jobs = %d, want 1", len(env.submitter.jobs))
	}
}

func TestGenerate_MissingTopic(t *testing.T) {
	env := newTestEnv(t)
	form := generateForm()
	form.Set("curriculum_topic", "  ")
	rr := env.do(t, http.MethodPost, "/plans/generate", form)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if len(env.submitter.jobs) != 0 {
		t.Error("invalid job was submitted")
	}
}

func TestLogin_SignIn(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodPost, "/login", url.Values{
		"mode": {"signin"}, "email": {"Ayse@Okul.k12.tr"}, "password": {"gizli123"},
	})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/plans" {
		t.Fatalf("status = %d location = %q", rr.Code, rr.Header().Get("Location"))
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}
	sess, ok := env.server.Sessions().Get(cookie.Value)
	if !ok || sess.Identity.UserID != "u-1" {
		t.Errorf("session = %+v, %v", sess, ok)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		signInErr  error
		wantStatus int
		wantText   string
	}{
		{"bad credentials", account.ErrInvalidCredentials, http.StatusUnauthorized, "E-posta adresi veya şifre hatalı."},
		{"not confirmed", account.ErrEmailNotConfirmed, http.StatusUnauthorized, "henüz doğrulanmadı"},
		{"locked", account.ErrAccountLocked, http.StatusTooManyRequests, "15 dakika"},
		{"remote failure verbatim", errStoreDown, http.StatusBadGateway, errStoreDown.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.signInErr = tt.signInErr
			rr := env.doAnon(t, http.MethodPost, "/login", url.Values{
				"mode": {"signin"}, "email": {"a@b.co"}, "password": {"x"},
			})
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tt.wantText) {
				t.Errorf("body missing %q", tt.wantText)
			}
			if env.server.Sessions().Len() != 0 {
				t.Error("failed sign-in created a session")
			}
		})
	}
}

func TestLogin_SignUpPendingConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signUp = account.SignUpResult{PendingConfirmation: true}
	rr := env.doAnon(t, http.MethodPost, "/login", url.Values{
		"mode": {"signup"}, "email": {"yeni@okul.k12.tr"}, "password": {"gizli123"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Hesabınız oluşturuldu") {
		t.Error("pending confirmation message missing")
	}
	if !strings.Contains(body, `name="mode" value="signin"`) {
		t.Error("page should switch to sign-in mode")
	}
	if env.server.Sessions().Len() != 0 {
		t.Error("pending sign-up must not create a session")
	}
}

func TestLogin_SignUpShortPassword(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodPost, "/login", url.Values{
		"mode": {"signup"}, "email": {"yeni@okul.k12.tr"}, "password": {"123"},
	})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "en az 6 karakter") {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := env.server.Sessions().Create(env.session.Identity)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	req = req.WithContext(middleware.ContextWithSession(req.Context(), env.session))
	rr := httptest.NewRecorder()
	env.server.routes().ServeHTTP(rr, req)

	if rr.Header().Get("Location") != "/login" {
		t.Errorf("location = %q", rr.Header().Get("Location"))
	}
	if env.server.Sessions().Len() != 0 {
		t.Error("session not removed")
	}
	if env.auth.signOuts != 1 {
		t.Errorf("sign outs = %d, want 1", env.auth.signOuts)
	}
}

func TestActivate_HostedAuthHasNoRoute(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodGet, "/activate?token=abc", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestHealth_ReportsRequestLatency(t *testing.T) {
	env := newTestEnv(t)
	h := env.server.Handler()
	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plans", nil))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Requests.Total != 2 {
		t.Errorf("requests total = %d, want 2", resp.Requests.Total)
	}
	if len(resp.Requests.Slowest) != 1 || resp.Requests.Slowest[0].Route != "GET /plans" {
		t.Errorf("slowest = %+v", resp.Requests.Slowest)
	}
}

func TestRootRedirectsToList(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAnon(t, http.MethodGet, "/", nil)
	if rr.Header().Get("Location") != "/plans" {
		t.Errorf("location = %q", rr.Header().Get("Location"))
	}
	rr = env.doAnon(t, http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rr.Code)
	}
}
