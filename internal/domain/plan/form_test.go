package plan_test

import (
	"errors"
	"testing"
	"time"

	"dersplan/internal/domain/plan"
)

// TestNewForm_Defaults verifies today's date and the default duration.
func TestNewForm_Defaults(t *testing.T) {
	f := plan.NewForm(time.Date(2024, 9, 2, 14, 0, 0, 0, time.UTC))
	if f.Date != "2024-09-02" {
		t.Errorf("Date = %q, want 2024-09-02", f.Date)
	}
	if f.Duration != "60" {
		t.Errorf("Duration = %q, want 60", f.Duration)
	}
	if f.Title != "" || f.ClassLevel != "" || len(f.Sections) != 0 {
		t.Errorf("expected other fields empty, got %+v", f)
	}
}

// TestForm_ToPlan_CoercesDuration verifies the duration becomes integer minutes.
func TestForm_ToPlan_CoercesDuration(t *testing.T) {
	f := plan.NewForm(time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))
	f.Title = "Kesirler"
	f.ClassLevel = "5. Sınıf"
	f.Subject = "Matematik"
	f.CurriculumTopic = "Kesirler"
	f.Duration = "45"
	f.Set(plan.SectionFraternity, "Paylaşım")

	p, err := f.ToPlan("u1")
	if err != nil {
		t.Fatalf("ToPlan() error: %v", err)
	}
	if p.DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", p.DurationMinutes)
	}
	if p.Owner != "u1" {
		t.Errorf("Owner = %q", p.Owner)
	}
	if p.Section(plan.SectionFraternity) != "Paylaşım" {
		t.Errorf("section not carried over")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

// TestForm_ToPlan_Errors covers the coercion failures.
func TestForm_ToPlan_Errors(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		duration string
		wantErr  error
	}{
		{name: "non numeric duration", date: "2024-01-01", duration: "altmış", wantErr: plan.ErrDurationNotInteger},
		{name: "duration too short", date: "2024-01-01", duration: "10", wantErr: plan.ErrDurationOutOfRange},
		{name: "empty date", date: "", duration: "60", wantErr: plan.ErrEmptyDate},
		{name: "malformed date", date: "05/03/2024", duration: "60", wantErr: plan.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := plan.Form{Date: tt.date, Duration: tt.duration}
			_, err := f.ToPlan("u1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ToPlan() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestFormFromPlan_RoundTrip verifies an editor form is seeded with every field.
func TestFormFromPlan_RoundTrip(t *testing.T) {
	p := validPlan()
	p.Sections[plan.SectionOralCulture] = "Masal"
	f := plan.FormFromPlan(p)

	if f.Date != "2024-03-05" || f.Duration != "60" || f.Title != p.Title {
		t.Errorf("unexpected form %+v", f)
	}
	if f.Get(plan.SectionOralCulture) != "Masal" || f.Get(plan.SectionObjectives) != "- Kesirleri toplar" {
		t.Errorf("sections not seeded: %v", f.Sections)
	}
}

// TestForm_SetAndMerge verifies unknown keys are dropped.
func TestForm_SetAndMerge(t *testing.T) {
	var f plan.Form
	if f.Set("bogus", "x") {
		t.Error("Set() accepted an unknown key")
	}
	f.Merge(map[string]string{
		plan.FieldSubject:      "Tarih",
		plan.SectionActivities: "Drama",
		"csrf_token":           "ignored",
	})
	if f.Subject != "Tarih" || f.Get(plan.SectionActivities) != "Drama" {
		t.Errorf("Merge() did not apply values: %+v", f)
	}
	if f.Get("csrf_token") != "" {
		t.Error("Merge() stored an unknown key")
	}
}

// TestForm_Clone verifies clones do not share section maps.
func TestForm_Clone(t *testing.T) {
	f := plan.Form{Sections: map[string]string{plan.SectionEvidences: "a"}}
	c := f.Clone()
	c.Set(plan.SectionEvidences, "b")
	if f.Get(plan.SectionEvidences) != "a" {
		t.Error("Clone() shares section map with original")
	}
}
