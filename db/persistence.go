package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"learnzy-server/analytics"
	"learnzy-server/models"
	"learnzy-server/session"
)

const saveTimeout = 5 * time.Second

// NewCompletionListener adapts the Store to the session's change events.
// Persistence is fire-and-forget: a failed save is logged and never rolls
// back or blocks the in-memory transition, since the live session is the
// authoritative state for the duration of the test.
func NewCompletionListener(store Store, logger *zap.Logger) session.Listener {
	return func(ev session.Event) {
		if ev.Snapshot.Status != models.StatusCompleted {
			return
		}

		ledger := make(map[string]models.AnswerRecord, len(ev.Answers))
		for _, rec := range ev.Answers {
			ledger[rec.QuestionID] = rec
		}
		report := analytics.ComputeReport(ev.Questions, ledger)

		attempt := &models.Attempt{
			TestID:           ev.Snapshot.TestID,
			Email:            ev.Snapshot.Email,
			Score:            ev.Snapshot.Score,
			AccuracyPercent:  report.AccuracyPercent,
			TimeSpentSeconds: report.TotalUserTimeSeconds,
			StartedAt:        ev.Snapshot.StartedAt,
			CompletedAt:      time.Now(),
			Answers:          ev.Answers,
			Recommendations:  analytics.Recommend(report),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := store.SaveAttempt(ctx, attempt); err != nil {
				logger.Error("failed to persist attempt",
					zap.String("session_id", ev.Snapshot.SessionID),
					zap.String("email", ev.Snapshot.Email),
					zap.Error(err))
			}
		}()
	}
}
