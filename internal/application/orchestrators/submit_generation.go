package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dersplan/internal/domain/generation"
)

// GenerationSubmitter hands a job to the external generation workflow.
type GenerationSubmitter interface {
	Submit(ctx context.Context, job generation.Job) error
}

// SubmitGenerationInput carries the AI request form.
type SubmitGenerationInput struct {
	Owner           string
	ClassLevel      string
	Subject         string
	CurriculumTopic string
}

// SubmitGenerationDeps holds dependencies for SubmitGeneration.
type SubmitGenerationDeps struct {
	Submitter GenerationSubmitter
	Now       func() time.Time
}

// ExecuteSubmitGeneration sends a generation job and returns the submission time.
// The generated plan shows up later as an ordinary row; nothing here waits for it.
// PRE: none
// POST: at most one Submit call; rows created after the returned time may be the result
func ExecuteSubmitGeneration(ctx context.Context, input SubmitGenerationInput, deps SubmitGenerationDeps) (time.Time, error) {
	if input.Owner == "" {
		return time.Time{}, ErrNoActiveSession
	}

	job := generation.Job{
		Owner:           input.Owner,
		ClassLevel:      input.ClassLevel,
		Subject:         input.Subject,
		CurriculumTopic: strings.TrimSpace(input.CurriculumTopic),
	}
	if err := job.Validate(); err != nil {
		return time.Time{}, err
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	// taken before the call: the workflow may write its row before we hear back
	submittedAt := now().UTC()

	if err := deps.Submitter.Submit(ctx, job); err != nil {
		slog.Error("generation_event", "event", "rejected", "owner", input.Owner, "error", err)
		return time.Time{}, err
	}

	slog.Info("generation_event", "event", "accepted", "owner", input.Owner,
		"class_level", job.ClassLevel, "subject", job.Subject)
	return submittedAt, nil
}
