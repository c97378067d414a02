package manager

import "context"

// SubmissionOutcome reports the result of a submission attempt to the
// session tracking collaborator.
type SubmissionOutcome struct {
	Success bool
	EntryID string
	Err     error
}

// SubmissionClient hands a completed intake off to the persistence
// collaborator. The access token is an opaque session credential; it is not
// validated here.
type SubmissionClient interface {
	Submit(ctx context.Context, accessToken string, answers map[string]interface{}, document string) (entryID string, err error)
}

// DraftStore receives debounced auto-save snapshots of the answer map so a
// session can be resumed. Failures are logged, never surfaced; a draft save
// must never block an answer mutation.
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID string, answers map[string]interface{}) error
}

// SessionTracker receives informational navigation and submission events.
// Implementations must tolerate being called from a goroutine; the session
// never waits on them.
type SessionTracker interface {
	StepChanged(stepIndex int, firstFieldID string, progressPercent int)
	SubmissionOutcome(outcome SubmissionOutcome)
}
