package session

import (
	"learnzy-server/models"
)

// Marks awarded per recorded answer.
const (
	marksCorrect = 4
	marksWrong   = -1
)

// Ledger maps question IDs to answer records. At most one record per
// question. Owned exclusively by the session that created it; everything
// outside the session sees value copies only.
type Ledger map[string]*models.AnswerRecord

// Record applies an answer. The first answer for a question creates its
// record; a revisit overwrites the selection and accumulates engagement
// time rather than resetting it.
func (l Ledger) Record(q *models.Question, selected string, elapsed float64) {
	if rec, ok := l[q.ID]; ok {
		rec.SelectedOption = selected
		rec.TimeTakenSeconds += elapsed
		return
	}
	l[q.ID] = &models.AnswerRecord{
		QuestionID:       q.ID,
		SelectedOption:   selected,
		CorrectOption:    q.CorrectOption,
		TimeTakenSeconds: elapsed,
		IdealTimeSeconds: q.IdealTimeSeconds,
	}
}

// AddTime accumulates engagement time on an existing record without
// touching the selection. No-op if the question was never answered.
func (l Ledger) AddTime(questionID string, elapsed float64) {
	if rec, ok := l[questionID]; ok {
		rec.TimeTakenSeconds += elapsed
	}
}

// Score recomputes the total from every record. Always the full sum over
// the ledger, never an incremental delta, so the score invariant holds even
// after overwritten answers.
func (l Ledger) Score() int {
	total := 0
	for _, rec := range l {
		if rec.Correct() {
			total += marksCorrect
		} else {
			total += marksWrong
		}
	}
	return total
}

// Snapshot returns a value copy of the ledger for read-only consumers.
func (l Ledger) Snapshot() map[string]models.AnswerRecord {
	out := make(map[string]models.AnswerRecord, len(l))
	for id, rec := range l {
		out[id] = *rec
	}
	return out
}
