package generation

import (
	"errors"
	"strings"

	"dersplan/internal/domain/plan"
)

// Domain errors
var (
	ErrEmptyOwner = errors.New("generation job owner is required")
	ErrEmptyTopic = errors.New("curriculum topic cannot be empty")
)

// Job describes one AI plan generation request.
// The JSON shape is what the automation webhook expects.
type Job struct {
	Owner           string `json:"user_id"`
	ClassLevel      string `json:"class_level"`
	Subject         string `json:"subject"`
	CurriculumTopic string `json:"curriculum_topic"`
}

// Validate checks if the Job has valid data.
// PRE: Job struct is populated
// POST: Returns nil if valid, error otherwise
func (j *Job) Validate() error {
	if j.Owner == "" {
		return ErrEmptyOwner
	}
	if !plan.IsClassLevel(j.ClassLevel) {
		return plan.ErrInvalidClassLevel
	}
	if !plan.IsSubject(j.Subject) {
		return plan.ErrInvalidSubject
	}
	if strings.TrimSpace(j.CurriculumTopic) == "" {
		return ErrEmptyTopic
	}
	return nil
}
