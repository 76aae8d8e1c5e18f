package plan

import (
	"errors"
	"strings"
	"time"
)

// Duration bounds in minutes.
const (
	MinDuration     = 15
	MaxDuration     = 180
	DefaultDuration = 60
)

// DateLayout is the calendar-date layout used by forms and the record store.
const DateLayout = "2006-01-02"

// ClassLevels are the grade labels a plan can target, in display order.
var ClassLevels = []string{
	"1. Sınıf", "2. Sınıf", "3. Sınıf", "4. Sınıf",
	"5. Sınıf", "6. Sınıf", "7. Sınıf", "8. Sınıf",
	"9. Sınıf", "10. Sınıf", "11. Sınıf", "12. Sınıf",
}

// Subjects are the subject labels a plan can target, in display order.
var Subjects = []string{
	"Matematik", "Türkçe", "Fen Bilimleri", "Sosyal Bilgiler",
	"İngilizce", "Fizik", "Kimya", "Biyoloji", "Tarih",
	"Coğrafya", "Edebiyat", "Geometri",
}

// Domain errors
var (
	ErrNotFound           = errors.New("plan not found")
	ErrEmptyOwner         = errors.New("plan owner is required")
	ErrEmptyTitle         = errors.New("plan title cannot be empty")
	ErrEmptyDate          = errors.New("plan date is required")
	ErrInvalidDate        = errors.New("plan date must be a valid date (YYYY-MM-DD)")
	ErrInvalidClassLevel  = errors.New("class level must be one of the listed grades")
	ErrInvalidSubject     = errors.New("subject must be one of the listed subjects")
	ErrEmptyTopic         = errors.New("curriculum topic cannot be empty")
	ErrDurationNotInteger = errors.New("duration must be a whole number of minutes")
	ErrDurationOutOfRange = errors.New("duration must be between 15 and 180 minutes")
	ErrUnknownSection     = errors.New("unknown plan section")
)

// Plan is a special lesson plan record.
// Sections maps a section key (see Sections) to its free text; missing keys are empty.
type Plan struct {
	ID              string
	Owner           string // user id of the creator, never changed after creation
	Title           string
	Date            time.Time
	ClassLevel      string
	Subject         string
	CurriculumTopic string
	DurationMinutes int
	Sections        map[string]string
	CreatedAt       time.Time
}

// Validate checks if the Plan has valid data.
// PRE: Plan struct is populated
// POST: Returns nil if valid, the first failing rule otherwise
func (p *Plan) Validate() error {
	if p.Owner == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Date.IsZero() {
		return ErrEmptyDate
	}
	if !IsClassLevel(p.ClassLevel) {
		return ErrInvalidClassLevel
	}
	if !IsSubject(p.Subject) {
		return ErrInvalidSubject
	}
	if strings.TrimSpace(p.CurriculumTopic) == "" {
		return ErrEmptyTopic
	}
	if p.DurationMinutes < MinDuration || p.DurationMinutes > MaxDuration {
		return ErrDurationOutOfRange
	}
	for key := range p.Sections {
		if !IsSectionKey(key) {
			return ErrUnknownSection
		}
	}
	return nil
}

// Section returns the text of the given section, or "" when unset.
func (p *Plan) Section(key string) string {
	if p.Sections == nil {
		return ""
	}
	return p.Sections[key]
}

// IsOwnedBy reports whether userID created the plan.
// INVARIANT: Plan fields are not mutated
func (p *Plan) IsOwnedBy(userID string) bool {
	return userID != "" && p.Owner == userID
}

// IsClassLevel reports whether s is one of ClassLevels.
func IsClassLevel(s string) bool {
	return contains(ClassLevels, s)
}

// IsSubject reports whether s is one of Subjects.
func IsSubject(s string) bool {
	return contains(Subjects, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
