package plan

import (
	"strconv"
	"strings"
	"time"
)

// Form field keys for the short fields. Long-text sections use their section key.
const (
	FieldTitle           = "title"
	FieldDate            = "date"
	FieldClassLevel      = "class_level"
	FieldSubject         = "subject"
	FieldCurriculumTopic = "curriculum_topic"
	FieldDuration        = "duration"
)

// Form is the editable field set shared by the wizard and the editor.
// Values are kept as entered; ToPlan does the coercion.
type Form struct {
	Title           string
	Date            string
	ClassLevel      string
	Subject         string
	CurriculumTopic string
	Duration        string
	Sections        map[string]string
}

// NewForm returns an empty form with the date set to today and the default duration.
func NewForm(today time.Time) Form {
	return Form{
		Date:     today.Format(DateLayout),
		Duration: strconv.Itoa(DefaultDuration),
		Sections: make(map[string]string, len(Sections)),
	}
}

// FormFromPlan seeds a form with every editable field of p.
func FormFromPlan(p Plan) Form {
	f := Form{
		Title:           p.Title,
		ClassLevel:      p.ClassLevel,
		Subject:         p.Subject,
		CurriculumTopic: p.CurriculumTopic,
		Duration:        strconv.Itoa(p.DurationMinutes),
		Sections:        make(map[string]string, len(Sections)),
	}
	if !p.Date.IsZero() {
		f.Date = p.Date.Format(DateLayout)
	}
	for _, s := range Sections {
		if v := p.Section(s.Key); v != "" {
			f.Sections[s.Key] = v
		}
	}
	return f
}

// Get returns the value of a field or section key.
func (f Form) Get(key string) string {
	switch key {
	case FieldTitle:
		return f.Title
	case FieldDate:
		return f.Date
	case FieldClassLevel:
		return f.ClassLevel
	case FieldSubject:
		return f.Subject
	case FieldCurriculumTopic:
		return f.CurriculumTopic
	case FieldDuration:
		return f.Duration
	}
	if f.Sections == nil {
		return ""
	}
	return f.Sections[key]
}

// Set assigns a field or section value. Unknown keys are ignored and reported as false.
func (f *Form) Set(key, value string) bool {
	switch key {
	case FieldTitle:
		f.Title = value
	case FieldDate:
		f.Date = value
	case FieldClassLevel:
		f.ClassLevel = value
	case FieldSubject:
		f.Subject = value
	case FieldCurriculumTopic:
		f.CurriculumTopic = value
	case FieldDuration:
		f.Duration = value
	default:
		if !IsSectionKey(key) {
			return false
		}
		if f.Sections == nil {
			f.Sections = make(map[string]string, len(Sections))
		}
		f.Sections[key] = value
	}
	return true
}

// Merge copies the given values into the form. Keys it does not know are dropped.
func (f *Form) Merge(values map[string]string) {
	for k, v := range values {
		f.Set(k, v)
	}
}

// Clone returns a deep copy so drafts never share section maps.
func (f Form) Clone() Form {
	c := f
	c.Sections = make(map[string]string, len(f.Sections))
	for k, v := range f.Sections {
		c.Sections[k] = v
	}
	return c
}

// FieldKeys returns every editable key in form order.
func FieldKeys() []string {
	keys := []string{FieldTitle, FieldDate, FieldClassLevel, FieldSubject, FieldCurriculumTopic, FieldDuration}
	return append(keys, SectionKeys()...)
}

// ParseDuration coerces a duration entry to whole minutes.
func ParseDuration(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrDurationNotInteger
	}
	if n < MinDuration || n > MaxDuration {
		return 0, ErrDurationOutOfRange
	}
	return n, nil
}

// ToPlan converts the form into a Plan owned by owner.
// PRE: none
// POST: Returns a Plan with duration as integer minutes, or the first coercion error.
// The returned plan is not validated; callers run Validate.
func (f Form) ToPlan(owner string) (Plan, error) {
	p := Plan{
		Owner:           owner,
		Title:           strings.TrimSpace(f.Title),
		ClassLevel:      f.ClassLevel,
		Subject:         f.Subject,
		CurriculumTopic: strings.TrimSpace(f.CurriculumTopic),
		Sections:        make(map[string]string, len(Sections)),
	}

	if strings.TrimSpace(f.Date) == "" {
		return Plan{}, ErrEmptyDate
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(f.Date))
	if err != nil {
		return Plan{}, ErrInvalidDate
	}
	p.Date = date

	minutes, err := ParseDuration(f.Duration)
	if err != nil {
		return Plan{}, err
	}
	p.DurationMinutes = minutes

	for _, s := range Sections {
		if v := f.Sections[s.Key]; v != "" {
			p.Sections[s.Key] = v
		}
	}
	return p, nil
}
