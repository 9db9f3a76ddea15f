package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnzy-server/models"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Text: "2+2?", OptionA: "4", OptionB: "5", OptionC: "6", OptionD: "7",
			CorrectOption: "A", Subject: "Math", Topic: "Arithmetic", Difficulty: "Easy",
			BloomLevel: "Recall", IdealTimeSeconds: 60},
		{ID: "q2", Text: "Capital of France?", OptionA: "Berlin", OptionB: "Paris", OptionC: "Rome", OptionD: "Madrid",
			CorrectOption: "B", Subject: "Geography", Topic: "Capitals", Difficulty: "Easy",
			BloomLevel: "Recall", IdealTimeSeconds: 60},
		{ID: "q3", Text: "H2O is?", OptionA: "Water", OptionB: "Salt", OptionC: "Air", OptionD: "Gold",
			CorrectOption: "A", Subject: "Science", Topic: "Chemistry", Difficulty: "Medium",
			BloomLevel: "Recall", IdealTimeSeconds: 60},
	}
}

func startedSession(t *testing.T, clock *fakeClock) *Session {
	t.Helper()
	s := New("sess-1", "student@example.com", clock.Now, nil)
	_, err := s.Start("mock-1", testQuestions(), 30*time.Minute)
	require.NoError(t, err)
	return s
}

func TestStartEmptyQuestionSet(t *testing.T) {
	clock := newFakeClock()
	s := New("sess-1", "student@example.com", clock.Now, nil)

	snap, err := s.Start("mock-1", nil, 30*time.Minute)
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
	assert.Equal(t, models.StatusNotStarted, snap.Status)
}

func TestStartTwiceRejected(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	_, err := s.Start("mock-1", testQuestions(), 30*time.Minute)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActionsBeforeStartAreInert(t *testing.T) {
	clock := newFakeClock()
	s := New("sess-1", "student@example.com", clock.Now, nil)

	_, err := s.Answer("A")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusNotStarted, s.Snapshot().Status)
}

func TestScoreRecomputedFromLedger(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	snap, err := s.Answer("A") // correct
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Score)

	// Overwriting the same question replaces the record, never duplicates it.
	snap, err = s.Answer("B") // now wrong
	require.NoError(t, err)
	assert.Equal(t, -1, snap.Score)
	assert.Equal(t, 1, snap.AnsweredCount)

	_, err = s.Next()
	require.NoError(t, err)
	snap, err = s.Answer("B") // correct
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Score) // -1 + 4

	_, ledger := s.ReportInputs()
	want := 0
	for _, rec := range ledger {
		if rec.Correct() {
			want += 4
		} else {
			want--
		}
	}
	assert.Equal(t, want, snap.Score)
}

func TestRevisitAccumulatesTime(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	clock.Advance(10 * time.Second)
	_, err := s.Answer("A")
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Previous()
	require.NoError(t, err)

	clock.Advance(5 * time.Second)
	_, err = s.Answer("C")
	require.NoError(t, err)

	_, ledger := s.ReportInputs()
	rec := ledger["q1"]
	assert.Equal(t, "C", rec.SelectedOption)
	assert.InDelta(t, 15, rec.TimeTakenSeconds, 0.001)
}

func TestNavigationBounds(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	snap, err := s.Previous()
	assert.NoError(t, err)
	assert.Equal(t, 0, snap.CurrentIndex)

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)

	snap, err = s.Next() // already at last index
	assert.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentIndex)
}

func TestInvalidOptionRejected(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	snap, err := s.Answer("E")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, 0, snap.AnsweredCount)
}

func TestSubmitFoldsPendingTime(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	clock.Advance(10 * time.Second)
	_, err := s.Answer("A")
	require.NoError(t, err)

	clock.Advance(7 * time.Second)
	snap, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, snap.Status)

	_, ledger := s.ReportInputs()
	assert.InDelta(t, 17, ledger["q1"].TimeTakenSeconds, 0.001)
}

func TestTickClampsAndForcesCompletion(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	clock.Advance(10 * time.Minute)
	snap := s.Tick(clock.Now())
	assert.Equal(t, models.StatusInProgress, snap.Status)
	assert.InDelta(t, 20*60, snap.RemainingSeconds, 0.001)

	clock.Advance(25 * time.Minute) // well past the limit
	snap = s.Tick(clock.Now())
	assert.Equal(t, models.StatusCompleted, snap.Status)
	assert.GreaterOrEqual(t, snap.RemainingSeconds, 0.0)
}

func TestExpiryDetectedOnNextAction(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	clock.Advance(31 * time.Minute)
	snap, err := s.Answer("A")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusCompleted, snap.Status)
}

func TestResetDiscardsEverything(t *testing.T) {
	clock := newFakeClock()
	s := startedSession(t, clock)

	_, err := s.Answer("A")
	require.NoError(t, err)
	_, err = s.Submit()
	require.NoError(t, err)

	snap, err := s.Reset()
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, snap.Status)
	assert.Equal(t, 0, snap.AnsweredCount)
	assert.Equal(t, 0, snap.Score)

	// A reset session can run a fresh attempt.
	snap, err = s.Start("mock-1", testQuestions(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, snap.Status)
}

func TestChangeEventsEmitted(t *testing.T) {
	clock := newFakeClock()
	var events []Event
	s := New("sess-1", "student@example.com", clock.Now, func(ev Event) {
		events = append(events, ev)
	})

	_, err := s.Start("mock-1", testQuestions(), 30*time.Minute)
	require.NoError(t, err)
	_, err = s.Answer("A")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Submit()
	require.NoError(t, err)

	var actions []string
	for _, ev := range events {
		actions = append(actions, ev.Action)
	}
	assert.Equal(t, []string{"start", "answer", "next", "submit"}, actions)

	final := events[len(events)-1]
	assert.Equal(t, models.StatusCompleted, final.Snapshot.Status)
	require.Len(t, final.Answers, 1)
	assert.Equal(t, "q1", final.Answers[0].QuestionID)
	assert.Len(t, final.Questions, 3)
}

func TestScoreScenario(t *testing.T) {
	// Correct, wrong, correct: 4 - 1 + 4.
	clock := newFakeClock()
	s := startedSession(t, clock)

	clock.Advance(30 * time.Second)
	_, err := s.Answer("A")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)

	clock.Advance(100 * time.Second)
	_, err = s.Answer("C")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	snap, err := s.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Score)
}
