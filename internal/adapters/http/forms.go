package web

import (
	"net/http"
	"strconv"

	"dersplan/internal/domain/plan"
)

// Field kinds the form templates know how to draw.
const (
	kindText     = "text"
	kindDate     = "date"
	kindNumber   = "number"
	kindSelect   = "select"
	kindTextarea = "textarea"
)

// fieldView is one form control.
type fieldView struct {
	Key      string
	Label    string
	Kind     string
	Value    string
	Options  []string
	Required bool
	Min, Max string
}

var fieldLabels = map[string]string{
	plan.FieldTitle:           "Plan Başlığı",
	plan.FieldDate:            "Tarih",
	plan.FieldClassLevel:      "Sınıf Seviyesi",
	plan.FieldSubject:         "Ders",
	plan.FieldCurriculumTopic: plan.CurriculumTopicTitle,
	plan.FieldDuration:        "Süre (dakika)",
}

// fieldViews builds the controls for keys, filled from f.
func fieldViews(f plan.Form, keys []string) []fieldView {
	views := make([]fieldView, 0, len(keys))
	for _, key := range keys {
		v := fieldView{Key: key, Value: f.Get(key), Kind: kindTextarea, Label: plan.SectionTitle(key)}
		if label, ok := fieldLabels[key]; ok {
			v.Label = label
			v.Required = true
		}
		switch key {
		case plan.FieldTitle, plan.FieldCurriculumTopic:
			v.Kind = kindText
		case plan.FieldDate:
			v.Kind = kindDate
		case plan.FieldDuration:
			v.Kind = kindNumber
			v.Min = strconv.Itoa(plan.MinDuration)
			v.Max = strconv.Itoa(plan.MaxDuration)
		case plan.FieldClassLevel:
			v.Kind = kindSelect
			v.Options = plan.ClassLevels
		case plan.FieldSubject:
			v.Kind = kindSelect
			v.Options = plan.Subjects
		}
		views = append(views, v)
	}
	return views
}

// postedValues returns the submitted values of the given keys.
// Keys absent from the form are left out so they do not blank the draft.
// PRE: r.ParseForm has been called
func postedValues(r *http.Request, keys []string) map[string]string {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if _, ok := r.PostForm[key]; ok {
			values[key] = r.PostForm.Get(key)
		}
	}
	return values
}

// postedForm builds a form from every editable field of the request.
// PRE: r.ParseForm has been called
func postedForm(r *http.Request) plan.Form {
	f := plan.Form{Sections: map[string]string{}}
	f.Merge(postedValues(r, plan.FieldKeys()))
	return f
}
