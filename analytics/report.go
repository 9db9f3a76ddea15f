package analytics

import (
	"learnzy-server/models"
)

// Fixed policy constants. These are application-wide thresholds, not
// per-call configuration.
const (
	// WeakAccuracyPercent flags a group as weak below this accuracy.
	WeakAccuracyPercent = 70.0
	// SlowTimeRatio flags a group as slow above this average time ratio.
	SlowTimeRatio = 1.2
	// OverTimeRatio flags a single answer as over time.
	OverTimeRatio = 1.5
	// QuickTimeRatio flags a single answer as suspiciously quick.
	QuickTimeRatio = 0.75
	// DefaultIdealSeconds substitutes for a question without a usable
	// benchmark time, so analytics still run over partially specified
	// content. Overridable at the ingestion boundary.
	DefaultIdealSeconds = 60.0
)

// unspecifiedKey groups questions whose tag is empty so every question
// lands in exactly one group per dimension.
const unspecifiedKey = "Unspecified"

const (
	marksCorrect = 4
	marksWrong   = -1
)

type groupSums struct {
	total     int
	correct   int
	userTime  float64
	idealTime float64
}

// accumulator keeps one breakdown table, preserving the order keys were
// first seen.
type accumulator struct {
	keys   []string
	groups map[string]*groupSums
}

func newAccumulator() *accumulator {
	return &accumulator{groups: make(map[string]*groupSums)}
}

func (a *accumulator) add(key string, correct bool, userTime, idealTime float64) {
	if key == "" {
		key = unspecifiedKey
	}
	g, ok := a.groups[key]
	if !ok {
		g = &groupSums{}
		a.groups[key] = g
		a.keys = append(a.keys, key)
	}
	g.total++
	if correct {
		g.correct++
	}
	g.userTime += userTime
	g.idealTime += idealTime
}

func (a *accumulator) stats() []models.GroupStat {
	out := make([]models.GroupStat, 0, len(a.keys))
	for _, key := range a.keys {
		g := a.groups[key]
		stat := models.GroupStat{
			Key:     key,
			Total:   g.total,
			Correct: g.correct,
		}
		if g.total > 0 {
			stat.AccuracyPercent = 100 * float64(g.correct) / float64(g.total)
			stat.AvgUserTimeSeconds = g.userTime / float64(g.total)
			stat.AvgIdealTimeSeconds = g.idealTime / float64(g.total)
		}
		if g.idealTime > 0 {
			stat.TimeRatio = stat.AvgUserTimeSeconds / stat.AvgIdealTimeSeconds
		}
		out = append(out, stat)
	}
	return out
}

// ComputeReport aggregates a session's answer ledger over its question set.
// Pure: callers may invoke it repeatedly, concurrently, and mid-session on
// a ledger snapshot. Unanswered questions count toward every grouping's
// total, contribute zero user time and zero score, and still accrue their
// benchmark time.
func ComputeReport(questions []models.Question, ledger map[string]models.AnswerRecord) models.Report {
	var report models.Report
	subjects := newAccumulator()
	topics := newAccumulator()
	difficulties := newAccumulator()
	blooms := newAccumulator()

	report.TotalQuestions = len(questions)
	for i := range questions {
		q := &questions[i]
		ideal := effectiveIdeal(q.IdealTimeSeconds)
		userTime := 0.0
		correct := false

		rec, answered := ledger[q.ID]
		if answered {
			// The record carries the benchmark copied at answer time.
			ideal = effectiveIdeal(rec.IdealTimeSeconds)
			userTime = rec.TimeTakenSeconds
			correct = rec.Correct()
			report.AnsweredCount++
			if correct {
				report.CorrectCount++
				report.Score += marksCorrect
			} else {
				report.Score += marksWrong
			}

			ratio := rec.TimeTakenSeconds / ideal
			pacing := models.QuestionPacing{
				QuestionID:       q.ID,
				TimeTakenSeconds: rec.TimeTakenSeconds,
				IdealTimeSeconds: ideal,
				Ratio:            ratio,
			}
			if ratio > OverTimeRatio {
				report.OverTimeQuestions = append(report.OverTimeQuestions, pacing)
			} else if ratio > 0 && ratio < QuickTimeRatio {
				report.QuickQuestions = append(report.QuickQuestions, pacing)
			}
		}

		report.TotalUserTimeSeconds += userTime
		report.TotalIdealTimeSeconds += ideal
		subjects.add(q.Subject, correct, userTime, ideal)
		topics.add(q.Topic, correct, userTime, ideal)
		difficulties.add(q.Difficulty, correct, userTime, ideal)
		blooms.add(q.BloomLevel, correct, userTime, ideal)
	}

	if report.TotalQuestions > 0 {
		report.AccuracyPercent = 100 * float64(report.CorrectCount) / float64(report.TotalQuestions)
	}
	report.Subjects = subjects.stats()
	report.Topics = topics.stats()
	report.Difficulties = difficulties.stats()
	report.BloomLevels = blooms.stats()
	return report
}

// effectiveIdeal applies the missing-benchmark default.
func effectiveIdeal(seconds float64) float64 {
	if seconds <= 0 {
		return DefaultIdealSeconds
	}
	return seconds
}

// Weak reports whether a group's accuracy is below target.
func Weak(g models.GroupStat) bool {
	return g.AccuracyPercent < WeakAccuracyPercent
}

// Slow reports whether a group's pacing is above the slow threshold.
func Slow(g models.GroupStat) bool {
	return g.TimeRatio > SlowTimeRatio
}
