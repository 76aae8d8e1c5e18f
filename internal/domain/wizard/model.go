package wizard

import (
	"errors"
	"strings"

	"dersplan/internal/domain/plan"
)

// State is the position of a wizard in its lifecycle.
type State int

// Wizard states. Stage1..Stage4 are editable; Submitting is the busy state.
const (
	Stage1 State = iota + 1
	Stage2
	Stage3
	Stage4
	Submitting
	Done
	Failed
)

// StageCount is the number of editable stages.
const StageCount = 4

// Domain errors
var (
	ErrStageIncomplete = errors.New("class level and subject are required to continue")
	ErrBusy            = errors.New("a submission is already in progress")
	ErrFirstStage      = errors.New("already at the first stage")
	ErrLastStage       = errors.New("already at the last stage")
	ErrNotReady        = errors.New("the plan can only be saved from the last stage")
	ErrFinished        = errors.New("the wizard has already finished")
)

var stageFields = map[State][]string{
	Stage1: {plan.FieldClassLevel, plan.FieldSubject, plan.FieldDate, plan.FieldDuration},
	Stage2: {plan.FieldTitle, plan.FieldCurriculumTopic, plan.SectionObjectives},
	Stage3: {plan.SectionEnvisioning, plan.SectionAffirmation, plan.SectionModelPersona, plan.SectionEvidences},
	Stage4: {plan.SectionWorkshopOutput, plan.SectionFraternity, plan.SectionActivities, plan.SectionOralCulture, plan.SectionGameDesign},
}

var stageTitles = map[State]string{
	Stage1: "Temel Bilgiler",
	Stage2: "Konu ve Kazanımlar",
	Stage3: "Tasavvurat ve Tasdikat",
	Stage4: "Uygulama",
}

// StageFields returns the form keys edited on the given stage.
// Failed edits the same fields as Stage4.
func StageFields(s State) []string {
	if s == Failed {
		s = Stage4
	}
	return stageFields[s]
}

// StageTitle returns the step indicator label of a stage.
func StageTitle(s State) string {
	return stageTitles[s]
}

// Wizard is a four-stage plan draft. One draft is carried across every state.
type Wizard struct {
	State     State
	Draft     plan.Form
	LastError string // message of the last failed submit, cleared on the next attempt
	PlanID    string // set once Done
}

// New starts a wizard on stage 1 with the given draft.
// POST: State is Stage1, LastError is empty
func New(draft plan.Form) *Wizard {
	return &Wizard{State: Stage1, Draft: draft.Clone()}
}

// Stage returns the 1-based stage shown to the user.
// Submitting, Failed and Done show the last stage.
func (w *Wizard) Stage() int {
	if w.State >= Stage1 && w.State <= Stage4 {
		return int(w.State)
	}
	return StageCount
}

// Editable reports whether the draft accepts edits in the current state.
func (w *Wizard) Editable() bool {
	return (w.State >= Stage1 && w.State <= Stage4) || w.State == Failed
}

// Edit merges the values of the current stage's fields into the draft.
// Keys that belong to other stages are ignored.
// PRE: Wizard is editable
// POST: Draft holds the submitted values of the current stage
func (w *Wizard) Edit(values map[string]string) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	for _, key := range StageFields(w.State) {
		if v, ok := values[key]; ok {
			w.Draft.Set(key, v)
		}
	}
	return nil
}

// Next advances one stage. Leaving stage 1 requires class level and subject.
// PRE: State is Stage1..Stage3
// POST: State advanced by one, or unchanged with an error
func (w *Wizard) Next() error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if w.State == Stage4 || w.State == Failed {
		return ErrLastStage
	}
	if w.State == Stage1 && !w.stageOneComplete() {
		return ErrStageIncomplete
	}
	w.State++
	return nil
}

// Back moves one stage backwards. There is no gate on backward navigation.
// PRE: State is Stage2..Stage4 or Failed
// POST: State moved back by one
func (w *Wizard) Back() error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	switch w.State {
	case Stage1:
		return ErrFirstStage
	case Failed:
		w.State = Stage3
	default:
		w.State--
	}
	w.LastError = ""
	return nil
}

// BeginSubmit enters the busy state.
// PRE: State is Stage4 or Failed
// POST: State is Submitting and LastError is cleared
func (w *Wizard) BeginSubmit() error {
	switch w.State {
	case Submitting:
		return ErrBusy
	case Done:
		return ErrFinished
	case Stage4, Failed:
		w.State = Submitting
		w.LastError = ""
		return nil
	default:
		return ErrNotReady
	}
}

// Complete records a successful create.
// PRE: State is Submitting
// POST: State is Done and PlanID is set
func (w *Wizard) Complete(planID string) {
	w.State = Done
	w.PlanID = planID
}

// Fail records a failed create. The draft is kept for a retry.
// PRE: State is Submitting
// POST: State is Failed and LastError holds the message verbatim
func (w *Wizard) Fail(err error) {
	w.State = Failed
	if err != nil {
		w.LastError = err.Error()
	}
}

// Clone returns a deep copy of the wizard.
func (w *Wizard) Clone() *Wizard {
	c := *w
	c.Draft = w.Draft.Clone()
	return &c
}

func (w *Wizard) checkEditable() error {
	switch w.State {
	case Submitting:
		return ErrBusy
	case Done:
		return ErrFinished
	}
	return nil
}

func (w *Wizard) stageOneComplete() bool {
	return strings.TrimSpace(w.Draft.ClassLevel) != "" && strings.TrimSpace(w.Draft.Subject) != ""
}
