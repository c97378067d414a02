package manager

import (
	"context"
	"sync"
	"time"

	"github.com/carelane/intake/libs/clock"
	"github.com/carelane/intake/libs/conc"
	"github.com/carelane/intake/libs/errors"
	"github.com/carelane/intake/libs/golog"
	"github.com/samuel/go-metrics/metrics"
)

// SessionState is the lifecycle state of a form session.
type SessionState int

const (
	SessionStateEditing SessionState = iota
	SessionStateSubmitting
	SessionStateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case SessionStateEditing:
		return "editing"
	case SessionStateSubmitting:
		return "submitting"
	case SessionStateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	// ErrSessionReadOnly is returned for any mutation after submission
	// completed.
	ErrSessionReadOnly = errors.New("cannot modify a submitted session")

	// ErrNoNextStep is returned by RequestNext on the last step.
	ErrNoNextStep = errors.New("already on the last step")

	// ErrStepNotReachable is returned by GoToStep for a forward jump across
	// steps that have not been completed.
	ErrStepNotReachable = errors.New("step has not been reached yet")

	// ErrNotOnLastStep is returned by RequestSubmit before the last step.
	ErrNotOnLastStep = errors.New("submission is only available from the last step")

	// ErrSubmissionInFlight is returned when navigation or submission is
	// requested while a previous submission has not resolved.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

const defaultAutoSaveInterval = 2 * time.Second

// SessionConfig carries the dependencies of a form session. Template is
// required; every collaborator is optional and simply not invoked when
// absent.
type SessionConfig struct {
	Template    *FormTemplate
	Mode        string
	SessionID   string
	AccessToken string

	Submitter SubmissionClient
	Drafts    DraftStore
	Tracker   SessionTracker

	Clock            clock.Clock
	MetricsRegistry  metrics.Registry
	AutoSaveInterval time.Duration

	// InitialAnswers seeds the answer map when resuming from a draft, keyed
	// by field id with raw JSON values.
	InitialAnswers map[string]interface{}
}

// Session owns the mutable state of one intake flow: the answer map, the
// current step, the completed-step set and the submission lifecycle. All
// derived state (visible tree, steps, required set) is recomputed from the
// latest answers on every mutation; stale snapshots are never reused.
type Session struct {
	mu sync.Mutex

	template    *FormTemplate
	mode        string
	sessionID   string
	accessToken string

	answers   answerMap
	stepIndex int
	state     SessionState

	// completedSteps is keyed by the template section index backing each
	// step, not the step position: step indices renumber when a conditional
	// section appears or disappears, and a completion bit must never
	// transfer to a different section.
	completedSteps map[int]bool

	// submitAttempt gates which in-flight submission response may apply a
	// state transition; editing after RequestSubmit bumps it so a stale
	// success cannot silently mark the session submitted.
	submitAttempt int
	submitErr     error
	entryID       string

	fingerprint string
	tree        *VisibleTree
	steps       []*Step
	required    map[string]bool

	submitter SubmissionClient
	drafts    DraftStore
	tracker   SessionTracker

	clk              clock.Clock
	autoSaveInterval time.Duration
	draftPending     bool

	mAnswerUpdates  *metrics.Counter
	mStepChanges    *metrics.Counter
	mSubmissions    *metrics.Counter
	mSubmissionErrs *metrics.Counter
	mResolveLatency metrics.Histogram
}

// NewSession initializes a session for the given template. The visible
// tree and required set are computed immediately so the first render has a
// consistent snapshot.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Template == nil {
		return nil, errors.New("a template is required to start a session")
	}

	s := &Session{
		template:         cfg.Template,
		mode:             cfg.Mode,
		sessionID:        cfg.SessionID,
		accessToken:      cfg.AccessToken,
		answers:          make(answerMap),
		completedSteps:   make(map[int]bool),
		state:            SessionStateEditing,
		submitter:        cfg.Submitter,
		drafts:           cfg.Drafts,
		tracker:          cfg.Tracker,
		clk:              cfg.Clock,
		autoSaveInterval: cfg.AutoSaveInterval,
		mAnswerUpdates:   metrics.NewCounter(),
		mStepChanges:     metrics.NewCounter(),
		mSubmissions:     metrics.NewCounter(),
		mSubmissionErrs:  metrics.NewCounter(),
		mResolveLatency:  metrics.NewUnbiasedHistogram(),
	}
	if s.mode == "" {
		s.mode = ModePatient
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.autoSaveInterval <= 0 {
		s.autoSaveInterval = defaultAutoSaveInterval
	}
	if cfg.MetricsRegistry != nil {
		cfg.MetricsRegistry.Add("intake.answer_updates", s.mAnswerUpdates)
		cfg.MetricsRegistry.Add("intake.step_changes", s.mStepChanges)
		cfg.MetricsRegistry.Add("intake.submissions", s.mSubmissions)
		cfg.MetricsRegistry.Add("intake.submission_errors", s.mSubmissionErrs)
		cfg.MetricsRegistry.Add("intake.resolve_latency_us", s.mResolveLatency)
	}

	for fieldID, raw := range cfg.InitialAnswers {
		a, err := getAnswer(raw)
		if err != nil {
			return nil, errors.Annotatef(err, "answer for field %q", fieldID)
		}
		s.answers[fieldID] = a
	}

	s.recompute()
	return s, nil
}

// recompute derives the visible tree, steps and required set from the
// current answers. Callers must hold the lock. Recomputation is skipped
// when no answer that can change visibility has changed.
func (s *Session) recompute() {
	fp := answerFingerprint(s.template, s.answers, s.mode)
	if s.tree != nil && fp == s.fingerprint {
		return
	}

	start := s.clk.Now()
	s.tree = resolveVisibleTree(s.template, s.answers, s.mode)
	s.steps = partitionSteps(s.tree)
	s.required = requiredFieldSet(s.tree)
	s.fingerprint = fp
	s.mResolveLatency.Update(s.clk.Now().Sub(start).Microseconds())

	if len(s.steps) == 0 {
		s.stepIndex = 0
	} else if s.stepIndex >= len(s.steps) {
		s.stepIndex = len(s.steps) - 1
	}
}

// UpdateAnswer sets the current answer for a field. The field must be a
// question of the template, a currently visible follow-up instance, or a
// previously answered field (an orphaned follow-up answer may be
// overwritten but a never-seen id is rejected). A nil answer clears the
// field. Setting an answer equal to the current one is a no-op.
func (s *Session) UpdateAnswer(fieldID string, ans Answer) error {
	s.mu.Lock()

	if s.state == SessionStateSubmitted {
		s.mu.Unlock()
		return errors.Trace(ErrSessionReadOnly)
	}

	if s.template.Question(fieldID) == nil && s.tree.Field(fieldID) == nil {
		if _, ok := s.answers[fieldID]; !ok {
			s.mu.Unlock()
			return errors.Errorf("field %q doesn't exist in the layout", fieldID)
		}
	}

	if ans == nil {
		delete(s.answers, fieldID)
	} else {
		if existing, ok := s.answers[fieldID]; ok && existing.equals(ans) {
			// nothing to do if the answers are equal
			s.mu.Unlock()
			return nil
		}
		s.answers[fieldID] = ans
	}

	// an edit while a submission is in flight invalidates its response
	if s.state == SessionStateSubmitting {
		s.submitAttempt++
		s.state = SessionStateEditing
	}

	s.mAnswerUpdates.Inc(1)
	s.recompute()

	saveNeeded := s.drafts != nil && !s.draftPending
	if saveNeeded {
		s.draftPending = true
	}
	interval := s.autoSaveInterval
	s.mu.Unlock()

	if saveNeeded {
		conc.AfterFunc(interval, s.flushDraft)
	}

	return nil
}

// flushDraft snapshots the answers and hands them to the draft store. It
// is fire-and-forget: failures are logged and never surfaced to the
// editing flow.
func (s *Session) flushDraft() {
	s.mu.Lock()
	if !s.draftPending {
		s.mu.Unlock()
		return
	}
	s.draftPending = false
	snapshot := s.answers.serialize()
	sessionID := s.sessionID
	drafts := s.drafts
	s.mu.Unlock()

	if err := drafts.SaveDraft(context.Background(), sessionID, snapshot); err != nil {
		golog.Warningf("session %s: draft save failed: %s", sessionID, err)
	}
}

// Answer returns the current answer for a field. Orphaned follow-up
// answers remain retrievable here even after the follow-up is hidden.
func (s *Session) Answer(fieldID string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[fieldID]
	if !ok {
		return nil, errors.Trace(errNoAnswerExists)
	}
	return a, nil
}

// VisibleTree returns the current derived tree snapshot.
func (s *Session) VisibleTree() *VisibleTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// RequiredFieldIDs returns the currently required field ids in document
// order. The result is always a subset of the visible field ids.
func (s *Session) RequiredFieldIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, id := range s.tree.FieldIDs() {
		if s.required[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// State returns the lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StepIndex returns the current step.
func (s *Session) StepIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepIndex
}

// StepCount returns the number of navigable steps for the current
// visibility state.
func (s *Session) StepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Progress returns the completion percentage implied by the current step.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progressPercent(s.stepIndex, len(s.steps))
}

// LastSubmissionError returns the retryable error of the most recent
// failed submission, if any.
func (s *Session) LastSubmissionError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

// EntryID returns the persistence id of a submitted session.
func (s *Session) EntryID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryID
}

// Document renders the ordered answer document for the current state.
func (s *Session) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatDocument(s.template, s.answers, s.tree)
}

// RequestNext validates only the visible fields of the current step and,
// when they pass, marks the step completed and advances. A failure leaves
// the step unchanged and reports per-field errors; the first invalid field
// is the focus target.
func (s *Session) RequestNext() error {
	s.mu.Lock()

	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return errors.Trace(err)
	}
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return errors.Trace(ErrNoNextStep)
	}

	step := s.steps[s.stepIndex]
	if verr := validateFields(s.tree, s.answers, s.required, step.fieldIDs()); verr != nil {
		s.mu.Unlock()
		return verr
	}

	s.completedSteps[step.Section.SectionIndex] = true
	if s.stepIndex == len(s.steps)-1 {
		s.mu.Unlock()
		return errors.Trace(ErrNoNextStep)
	}

	s.stepIndex++
	s.mStepChanges.Inc(1)
	idx, first, progress := s.stepIndex, s.steps[s.stepIndex].firstFieldID(), progressPercent(s.stepIndex, len(s.steps))
	s.mu.Unlock()

	s.emitStepChanged(idx, first, progress)
	return nil
}

// RequestPrevious moves back one step. It never validates and is a no-op
// on the first step or outside of editing.
func (s *Session) RequestPrevious() {
	s.mu.Lock()

	if s.state != SessionStateEditing || s.stepIndex == 0 {
		s.mu.Unlock()
		return
	}

	s.stepIndex--
	s.mStepChanges.Inc(1)
	idx, first, progress := s.stepIndex, s.steps[s.stepIndex].firstFieldID(), progressPercent(s.stepIndex, len(s.steps))
	s.mu.Unlock()

	s.emitStepChanged(idx, first, progress)
}

// GoToStep jumps to the target step. Backward jumps are always permitted;
// a forward jump requires every step strictly between the current and the
// target to be completed.
func (s *Session) GoToStep(target int) error {
	s.mu.Lock()

	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return errors.Trace(err)
	}
	if target < 0 || target >= len(s.steps) {
		s.mu.Unlock()
		return errors.Errorf("step %d doesn't exist in the layout", target)
	}

	if target > s.stepIndex {
		for i := s.stepIndex + 1; i < target; i++ {
			if !s.completedSteps[s.steps[i].Section.SectionIndex] {
				s.mu.Unlock()
				return errors.Trace(ErrStepNotReachable)
			}
		}
	}

	if target == s.stepIndex {
		s.mu.Unlock()
		return nil
	}

	s.stepIndex = target
	s.mStepChanges.Inc(1)
	idx, first, progress := s.stepIndex, s.steps[s.stepIndex].firstFieldID(), progressPercent(s.stepIndex, len(s.steps))
	s.mu.Unlock()

	s.emitStepChanged(idx, first, progress)
	return nil
}

// RequestSubmit re-validates the full currently-visible field set and, on
// success, hands the answers and the formatted document to the submission
// collaborator. The transition to Submitted (or back to Editing with a
// retryable error) is applied only if no newer edit or submission attempt
// superseded this one.
func (s *Session) RequestSubmit(ctx context.Context) error {
	s.mu.Lock()

	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return errors.Trace(err)
	}
	if s.submitter == nil {
		s.mu.Unlock()
		return errors.New("no submission client configured")
	}
	if len(s.steps) == 0 || s.stepIndex != len(s.steps)-1 {
		s.mu.Unlock()
		return errors.Trace(ErrNotOnLastStep)
	}

	if verr := validateFields(s.tree, s.answers, s.required, s.tree.FieldIDs()); verr != nil {
		s.mu.Unlock()
		return verr
	}

	s.completedSteps[s.steps[s.stepIndex].Section.SectionIndex] = true
	s.state = SessionStateSubmitting
	s.submitErr = nil
	s.submitAttempt++
	attempt := s.submitAttempt
	s.mSubmissions.Inc(1)

	doc := FormatDocument(s.template, s.answers, s.tree)
	snapshot := s.answers.serialize()
	token := s.accessToken
	submitter := s.submitter
	s.mu.Unlock()

	conc.GoCtx(ctx, func(ctx context.Context) {
		entryID, err := submitter.Submit(ctx, token, snapshot, doc)
		s.finishSubmission(attempt, entryID, err)
	})

	return nil
}

func (s *Session) finishSubmission(attempt int, entryID string, err error) {
	s.mu.Lock()

	if s.state != SessionStateSubmitting || s.submitAttempt != attempt {
		// a newer edit or attempt superseded this response
		s.mu.Unlock()
		golog.Debugf("session %s: dropping stale submission response (attempt %d)", s.sessionID, attempt)
		return
	}

	var outcome SubmissionOutcome
	if err != nil {
		s.state = SessionStateEditing
		s.submitErr = err
		s.mSubmissionErrs.Inc(1)
		outcome = SubmissionOutcome{Err: err}
	} else {
		s.state = SessionStateSubmitted
		s.entryID = entryID
		outcome = SubmissionOutcome{Success: true, EntryID: entryID}
	}
	s.mu.Unlock()

	if s.tracker != nil {
		t := s.tracker
		conc.Go(func() {
			t.SubmissionOutcome(outcome)
		})
	}
}

func (s *Session) checkEditable() error {
	switch s.state {
	case SessionStateSubmitted:
		return ErrSessionReadOnly
	case SessionStateSubmitting:
		return ErrSubmissionInFlight
	}
	return nil
}

func (s *Session) emitStepChanged(stepIndex int, firstFieldID string, progress int) {
	if s.tracker == nil {
		return
	}
	t := s.tracker
	conc.Go(func() {
		t.StepChanged(stepIndex, firstFieldID, progress)
	})
}
