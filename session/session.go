package session

import (
	"errors"
	"sync"
	"time"

	"learnzy-server/models"
)

var (
	// ErrEmptyQuestionSet is returned by Start when the loader handed over
	// zero questions. The session stays NotStarted.
	ErrEmptyQuestionSet = errors.New("session: question set is empty")
	// ErrInvalidTransition is returned when an action is invoked in a state
	// that does not permit it. The session is left untouched.
	ErrInvalidTransition = errors.New("session: action not valid in current state")
	// ErrInvalidOption is returned by Answer for a selection outside A-D.
	ErrInvalidOption = errors.New("session: selected option must be one of A-D")
	// ErrNotFound is returned by the registry for an unknown session ID.
	ErrNotFound = errors.New("session: not found")
)

// Event is emitted after every successful mutating transition. Answers and
// Questions are copies; listeners may hold them past the call.
type Event struct {
	Action    string
	Snapshot  models.StateSnapshot
	Answers   []models.AnswerRecord
	Questions []models.Question
}

// Listener receives change events. It runs inside the session's critical
// section and must not call back into the session; anything slow
// (persistence) belongs in a goroutine the listener spawns.
type Listener func(Event)

// Session is the state machine driving one test attempt. All actions are
// atomic: each locks the session, checks for countdown expiry, applies its
// transition, and returns a state snapshot. There is no background timer;
// expiry is detected lazily the next time any action or Tick runs.
type Session struct {
	mu        sync.Mutex
	id        string
	email     string
	testID    string
	questions []models.Question
	order     []string
	current   int
	status    models.SessionStatus
	score     int
	ledger    Ledger
	keeper    TimeKeeper
	duration  time.Duration
	now       func() time.Time
	listener  Listener
}

// New returns a NotStarted session. nowFn defaults to time.Now; listener
// may be nil.
func New(id, email string, nowFn func() time.Time, listener Listener) *Session {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Session{
		id:       id,
		email:    email,
		status:   models.StatusNotStarted,
		ledger:   make(Ledger),
		now:      nowFn,
		listener: listener,
	}
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Start begins the test. Valid only from NotStarted.
func (s *Session) Start(testID string, questions []models.Question, duration time.Duration) (models.StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.status != models.StatusNotStarted {
		return s.snapshotLocked(now), ErrInvalidTransition
	}
	if len(questions) == 0 {
		return s.snapshotLocked(now), ErrEmptyQuestionSet
	}
	s.testID = testID
	s.questions = questions
	s.order = make([]string, len(questions))
	for i := range questions {
		s.order[i] = questions[i].ID
	}
	s.current = 0
	s.score = 0
	s.ledger = make(Ledger)
	s.duration = duration
	s.keeper = NewTimeKeeper(now)
	s.status = models.StatusInProgress
	s.emitLocked("start", now)
	return s.snapshotLocked(now), nil
}

// Answer records the selection for the current question. A revisit
// overwrites the selection and accumulates time. The score is recomputed
// from the whole ledger on every call.
func (s *Session) Answer(selected string) (models.StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	if s.status != models.StatusInProgress {
		return s.snapshotLocked(now), ErrInvalidTransition
	}
	if !validOption(selected) {
		return s.snapshotLocked(now), ErrInvalidOption
	}
	q := &s.questions[s.current]
	s.ledger.Record(q, selected, s.keeper.QuestionElapsed(now))
	s.score = s.ledger.Score()
	s.keeper.RestartQuestion(now)
	s.emitLocked("answer", now)
	return s.snapshotLocked(now), nil
}

// Next advances to the following question. A no-op at the last index.
func (s *Session) Next() (models.StateSnapshot, error) {
	return s.navigate(1)
}

// Previous moves back one question. A no-op at index zero.
func (s *Session) Previous() (models.StateSnapshot, error) {
	return s.navigate(-1)
}

func (s *Session) navigate(step int) (models.StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	if s.status != models.StatusInProgress {
		return s.snapshotLocked(now), ErrInvalidTransition
	}
	target := s.current + step
	if target < 0 || target >= len(s.order) {
		// Out-of-bounds navigation is inert, not an error.
		return s.snapshotLocked(now), nil
	}
	s.current = target
	s.keeper.RestartQuestion(now)
	action := "next"
	if step < 0 {
		action = "previous"
	}
	s.emitLocked(action, now)
	return s.snapshotLocked(now), nil
}

// Submit finishes the attempt from any index. Pending engagement time on
// the current question is folded into its record first.
func (s *Session) Submit() (models.StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	if s.status != models.StatusInProgress {
		return s.snapshotLocked(now), ErrInvalidTransition
	}
	s.completeLocked(now)
	s.emitLocked("submit", now)
	return s.snapshotLocked(now), nil
}

// Tick reports the current state, force-completing the session if the
// countdown has run out. The HTTP layer polls this on a fixed cadence to
// keep the displayed countdown live and expiry prompt.
func (s *Session) Tick(now time.Time) models.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(now)
	return s.snapshotLocked(now)
}

// Reset aborts the attempt and returns to NotStarted, discarding the
// ledger. Valid from any state.
func (s *Session) Reset() (models.StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.testID = ""
	s.questions = nil
	s.order = nil
	s.current = 0
	s.score = 0
	s.ledger = make(Ledger)
	s.duration = 0
	s.status = models.StatusNotStarted
	s.emitLocked("reset", now)
	return s.snapshotLocked(now), nil
}

// Snapshot returns the current state without mutating anything.
func (s *Session) Snapshot() models.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.now())
}

// ReportInputs returns the question set and a ledger copy for the
// analytics aggregator. Safe to call at any point in the session.
func (s *Session) ReportInputs() ([]models.Question, map[string]models.AnswerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]models.Question, len(s.questions))
	copy(questions, s.questions)
	return questions, s.ledger.Snapshot()
}

// expireLocked force-completes an in-progress session whose countdown has
// run out. Polled at the top of every action.
func (s *Session) expireLocked(now time.Time) {
	if s.status != models.StatusInProgress {
		return
	}
	if !s.keeper.Expired(now, s.duration) {
		return
	}
	s.completeLocked(now)
	s.emitLocked("expire", now)
}

func (s *Session) completeLocked(now time.Time) {
	if len(s.order) > 0 {
		s.ledger.AddTime(s.order[s.current], s.keeper.QuestionElapsed(now))
	}
	s.score = s.ledger.Score()
	s.keeper.RestartQuestion(now)
	s.status = models.StatusCompleted
}

func (s *Session) snapshotLocked(now time.Time) models.StateSnapshot {
	remaining := 0.0
	if s.status == models.StatusInProgress {
		remaining = s.keeper.Remaining(now, s.duration)
	}
	return models.StateSnapshot{
		SessionID:           s.id,
		TestID:              s.testID,
		Email:               s.email,
		Status:              s.status,
		CurrentIndex:        s.current,
		QuestionCount:       len(s.order),
		AnsweredCount:       len(s.ledger),
		Score:               s.score,
		RemainingSeconds:    remaining,
		TestDurationSeconds: s.duration.Seconds(),
		StartedAt:           s.keeper.GlobalStart,
	}
}

func (s *Session) emitLocked(action string, now time.Time) {
	if s.listener == nil {
		return
	}
	answers := make([]models.AnswerRecord, 0, len(s.ledger))
	for _, id := range s.order {
		if rec, ok := s.ledger[id]; ok {
			answers = append(answers, *rec)
		}
	}
	questions := make([]models.Question, len(s.questions))
	copy(questions, s.questions)
	s.listener(Event{
		Action:    action,
		Snapshot:  s.snapshotLocked(now),
		Answers:   answers,
		Questions: questions,
	})
}

func validOption(selected string) bool {
	for _, opt := range models.ValidOptions {
		if opt == selected {
			return true
		}
	}
	return false
}
