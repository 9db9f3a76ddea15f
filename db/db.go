// --- learnzy-server/db/db.go ---
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"learnzy-server/models"
)

// Store is the attempt persistence boundary. The session core never talks
// to it directly; a completion listener hands finished attempts over and
// the history endpoint reads back.
type Store interface {
	SaveAttempt(ctx context.Context, attempt *models.Attempt) error
	ListHistory(ctx context.Context, email string) ([]models.HistoryEntry, error)
}

// InitDB initializes the PostgreSQL database connection pool
func InitDB(connString string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Ping the database to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return pool, nil
}

// CreateSchema sets up the attempt history tables.
// In a production environment, use a proper migration tool (e.g., golang-migrate).
func CreateSchema(pool *pgxpool.Pool) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS students (
		email VARCHAR(255) PRIMARY KEY
		-- The identity provider owns the actual user accounts.
	);

	CREATE TABLE IF NOT EXISTS test_attempts (
		id SERIAL PRIMARY KEY,
		test_id VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		score INT NOT NULL,
		accuracy_percent FLOAT NOT NULL,
		time_spent_seconds FLOAT NOT NULL,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
		answers JSONB NOT NULL,
		recommendations JSONB NOT NULL,
		FOREIGN KEY (email) REFERENCES students(email) ON DELETE CASCADE
	);
	`
	_, err := pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

// PGStore is the pgx-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// SaveAttempt records a finished attempt, creating the student row on
// first contact.
func (s *PGStore) SaveAttempt(ctx context.Context, attempt *models.Attempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (email) VALUES ($1) ON CONFLICT (email) DO NOTHING
	`, attempt.Email)
	if err != nil {
		return fmt.Errorf("failed to upsert student %s: %w", attempt.Email, err)
	}

	answersJSON, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	recsJSON, err := json.Marshal(attempt.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO test_attempts
			(test_id, email, score, accuracy_percent, time_spent_seconds,
			 started_at, completed_at, answers, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, attempt.TestID, attempt.Email, attempt.Score, attempt.AccuracyPercent,
		attempt.TimeSpentSeconds, attempt.StartedAt, attempt.CompletedAt,
		answersJSON, recsJSON).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to insert attempt for %s: %w", attempt.Email, err)
	}
	return nil
}

// ListHistory returns a student's completed attempts, newest first.
func (s *PGStore) ListHistory(ctx context.Context, email string) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT test_id, score, accuracy_percent, completed_at
		FROM test_attempts
		WHERE email = $1
		ORDER BY completed_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", email, err)
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.TestID, &entry.Score, &entry.AccuracyPercent, &entry.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
