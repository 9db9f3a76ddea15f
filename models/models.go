package models

import (
	"time"
)

// SessionStatus is the lifecycle state of a test session.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// ValidOptions are the selectable answer keys for every question.
var ValidOptions = []string{"A", "B", "C", "D"}

// Question is one unit of test content, produced by the ingestion loader.
// Immutable for the lifetime of a session.
type Question struct {
	ID               string  `json:"id"`
	Text             string  `json:"text"`
	OptionA          string  `json:"option_a"`
	OptionB          string  `json:"option_b"`
	OptionC          string  `json:"option_c"`
	OptionD          string  `json:"option_d"`
	CorrectOption    string  `json:"correct_option"` // "A".."D", stripped from API responses
	Subject          string  `json:"subject"`
	Topic            string  `json:"topic"`
	Subtopic         string  `json:"subtopic"`
	Difficulty       string  `json:"difficulty"`
	BloomLevel       string  `json:"bloom_level"`
	PriorityLevel    string  `json:"priority_level"`
	IdealTimeSeconds float64 `json:"ideal_time_seconds"`
}

// Option returns the text of one of the four options, or "" for an
// unknown key.
func (q *Question) Option(key string) string {
	switch key {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

// QuestionView is the client-facing shape of a question. It never carries
// the correct option.
type QuestionView struct {
	ID               string  `json:"id"`
	Text             string  `json:"text"`
	OptionA          string  `json:"option_a"`
	OptionB          string  `json:"option_b"`
	OptionC          string  `json:"option_c"`
	OptionD          string  `json:"option_d"`
	Subject          string  `json:"subject"`
	Topic            string  `json:"topic"`
	Difficulty       string  `json:"difficulty"`
	IdealTimeSeconds float64 `json:"ideal_time_seconds"`
}

// View strips the answer key from a question for API responses.
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:               q.ID,
		Text:             q.Text,
		OptionA:          q.OptionA,
		OptionB:          q.OptionB,
		OptionC:          q.OptionC,
		OptionD:          q.OptionD,
		Subject:          q.Subject,
		Topic:            q.Topic,
		Difficulty:       q.Difficulty,
		IdealTimeSeconds: q.IdealTimeSeconds,
	}
}

// AnswerRecord is one entry in a session's answer ledger. Created the first
// time a question is answered; re-answering overwrites the selection and
// accumulates time. CorrectOption and IdealTimeSeconds are copied from the
// question at answer time so later content edits cannot reshape a finished
// attempt.
type AnswerRecord struct {
	QuestionID       string  `json:"question_id"`
	SelectedOption   string  `json:"selected_option"`
	CorrectOption    string  `json:"correct_option"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
	IdealTimeSeconds float64 `json:"ideal_time_seconds"`
}

// Correct reports whether the recorded selection matches the answer key.
func (r AnswerRecord) Correct() bool {
	return r.SelectedOption == r.CorrectOption
}

// StateSnapshot is the immutable view of a session returned by every
// controller action.
type StateSnapshot struct {
	SessionID           string        `json:"session_id"`
	TestID              string        `json:"test_id"`
	Email               string        `json:"email"`
	Status              SessionStatus `json:"status"`
	CurrentIndex        int           `json:"current_index"`
	QuestionCount       int           `json:"question_count"`
	AnsweredCount       int           `json:"answered_count"`
	Score               int           `json:"score"`
	RemainingSeconds    float64       `json:"remaining_seconds"`
	TestDurationSeconds float64       `json:"test_duration_seconds"`
	StartedAt           time.Time     `json:"started_at"`
}

// GroupStat is one row of an analytics breakdown table (per subject, topic,
// difficulty, or bloom level).
type GroupStat struct {
	Key                 string  `json:"key"`
	Total               int     `json:"total"`
	Correct             int     `json:"correct"`
	AccuracyPercent     float64 `json:"accuracy_percent"`
	AvgUserTimeSeconds  float64 `json:"avg_user_time_seconds"`
	AvgIdealTimeSeconds float64 `json:"avg_ideal_time_seconds"`
	TimeRatio           float64 `json:"time_ratio"`
}

// QuestionPacing flags a single answered question as a pacing outlier.
type QuestionPacing struct {
	QuestionID       string  `json:"question_id"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
	IdealTimeSeconds float64 `json:"ideal_time_seconds"`
	Ratio            float64 `json:"ratio"`
}

// Report is a pure snapshot of a session's answer ledger, computed on
// demand and never mutated in place.
type Report struct {
	TotalQuestions        int              `json:"total_questions"`
	AnsweredCount         int              `json:"answered_count"`
	CorrectCount          int              `json:"correct_count"`
	Score                 int              `json:"score"`
	AccuracyPercent       float64          `json:"accuracy_percent"`
	TotalUserTimeSeconds  float64          `json:"total_user_time_seconds"`
	TotalIdealTimeSeconds float64          `json:"total_ideal_time_seconds"`
	Subjects              []GroupStat      `json:"subjects"`
	Topics                []GroupStat      `json:"topics"`
	Difficulties          []GroupStat      `json:"difficulties"`
	BloomLevels           []GroupStat      `json:"bloom_levels"`
	OverTimeQuestions     []QuestionPacing `json:"over_time_questions"`
	QuickQuestions        []QuestionPacing `json:"quick_questions"`
}

// TestBank is a loaded question set plus its session configuration.
type TestBank struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationSeconds float64    `json:"duration_seconds"`
	Questions       []Question `json:"questions"`
}

// BankYAML mirrors a bank.yaml metadata file.
type BankYAML struct {
	TestID           string `yaml:"test_id"`
	Title            string `yaml:"title"`
	TimeLimitMinutes int    `yaml:"time_limit_minutes"`
}

// Attempt is a finished session as persisted by the attempt store.
type Attempt struct {
	ID               int            `json:"id"`
	TestID           string         `json:"test_id"`
	Email            string         `json:"email"`
	Score            int            `json:"score"`
	AccuracyPercent  float64        `json:"accuracy_percent"`
	TimeSpentSeconds float64        `json:"time_spent_seconds"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      time.Time      `json:"completed_at"`
	Answers          []AnswerRecord `json:"answers"`
	Recommendations  []string       `json:"recommendations"`
}

// HistoryEntry is one row of a student's attempt history.
type HistoryEntry struct {
	TestID          string    `json:"test_id"`
	Score           int       `json:"score"`
	AccuracyPercent float64   `json:"accuracy_percent"`
	CompletedAt     time.Time `json:"completed_at"`
}

// StartSessionRequest starts a new test session.
type StartSessionRequest struct {
	TestID string `json:"test_id" binding:"required"`
}

// AnswerRequest records an answer for the current question.
type AnswerRequest struct {
	SelectedOption string `json:"selected_option" binding:"required,oneof=A B C D"`
}

// SessionResponse is returned when a session is started.
type SessionResponse struct {
	State     StateSnapshot  `json:"state"`
	TestTitle string         `json:"test_title"`
	Questions []QuestionView `json:"questions"`
}

// ReportResponse bundles the analytics report with its recommendations.
type ReportResponse struct {
	State           StateSnapshot `json:"state"`
	Report          Report        `json:"report"`
	Recommendations []string      `json:"recommendations"`
}

// TestSummary describes a loaded bank for the test listing endpoint.
type TestSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	QuestionCount int     `json:"question_count"`
	DurationSecs  float64 `json:"duration_seconds"`
}
