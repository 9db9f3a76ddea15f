// --- learnzy-server/ingestion/ingestion.go ---
package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"learnzy-server/models"
)

// Options control loader defaults for under-specified content.
type Options struct {
	// DefaultIdealSeconds substitutes for a missing or invalid
	// "Time to Solve" value.
	DefaultIdealSeconds float64
	// DefaultDurationMinutes substitutes for a bank.yaml without a
	// time limit.
	DefaultDurationMinutes int
}

// Column headers expected in questions.csv. Matching is case and
// whitespace insensitive.
const (
	colQuestionID    = "question id"
	colQuestionText  = "question text"
	colOptionA       = "option a"
	colOptionB       = "option b"
	colOptionC       = "option c"
	colOptionD       = "option d"
	colCorrectAnswer = "correct answer"
	colSubject       = "subject"
	colTopic         = "topic"
	colSubtopic      = "subtopic"
	colDifficulty    = "difficulty level"
	colBloomLevel    = "bloom level"
	colPriorityLevel = "priority level"
	colTimeToSolve   = "time to solve"
)

var requiredColumns = []string{
	colQuestionID, colQuestionText,
	colOptionA, colOptionB, colOptionC, colOptionD,
	colCorrectAnswer, colSubject, colTopic, colDifficulty,
}

// LoadBank reads one bank directory (bank.yaml + questions.csv) and returns
// a question set that satisfies the session schema: every question carries
// a unique ID, four options, a correct option in A-D, and a positive
// benchmark time.
func LoadBank(dir string, opts Options) (*models.TestBank, error) {
	yamlPath := filepath.Join(dir, "bank.yaml")
	csvPath := filepath.Join(dir, "questions.csv")

	yamlData, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", yamlPath, err)
	}
	var meta models.BankYAML
	if err := yaml.Unmarshal(yamlData, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
	}
	if meta.TestID == "" {
		meta.TestID = filepath.Base(dir)
	}
	if meta.Title == "" {
		meta.Title = meta.TestID
	}
	if meta.TimeLimitMinutes <= 0 {
		meta.TimeLimitMinutes = opts.DefaultDurationMinutes
	}

	questions, err := loadQuestionsCSV(csvPath, opts)
	if err != nil {
		return nil, err
	}

	return &models.TestBank{
		ID:              meta.TestID,
		Title:           meta.Title,
		DurationSeconds: float64(meta.TimeLimitMinutes) * 60,
		Questions:       questions,
	}, nil
}

func loadQuestionsCSV(path string, opts Options) ([]models.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one question", path)
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var questions []models.Question
	seenIDs := make(map[string]bool)
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after the header

		q := models.Question{
			ID:            field(row, colQuestionID),
			Text:          field(row, colQuestionText),
			OptionA:       field(row, colOptionA),
			OptionB:       field(row, colOptionB),
			OptionC:       field(row, colOptionC),
			OptionD:       field(row, colOptionD),
			CorrectOption: strings.ToUpper(field(row, colCorrectAnswer)),
			Subject:       field(row, colSubject),
			Topic:         field(row, colTopic),
			Subtopic:      field(row, colSubtopic),
			Difficulty:    field(row, colDifficulty),
			BloomLevel:    field(row, colBloomLevel),
			PriorityLevel: field(row, colPriorityLevel),
		}

		for _, pair := range []struct{ name, value string }{
			{colQuestionID, q.ID},
			{colQuestionText, q.Text},
			{colOptionA, q.OptionA},
			{colOptionB, q.OptionB},
			{colOptionC, q.OptionC},
			{colOptionD, q.OptionD},
			{colSubject, q.Subject},
			{colTopic, q.Topic},
			{colDifficulty, q.Difficulty},
		} {
			if pair.value == "" {
				return nil, fmt.Errorf("%s: line %d: missing %q", path, line, pair.name)
			}
		}
		if q.Option(q.CorrectOption) == "" {
			return nil, fmt.Errorf("%s: line %d: correct answer must be one of A-D, got %q", path, line, field(row, colCorrectAnswer))
		}
		if seenIDs[q.ID] {
			return nil, fmt.Errorf("%s: line %d: duplicate question id %q", path, line, q.ID)
		}
		seenIDs[q.ID] = true

		// Missing or unparseable benchmark time falls back to the default
		// rather than failing the bank.
		q.IdealTimeSeconds = opts.DefaultIdealSeconds
		if raw := field(row, colTimeToSolve); raw != "" {
			if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
				q.IdealTimeSeconds = secs
			}
		}

		questions = append(questions, q)
	}
	return questions, nil
}

// mapHeader resolves the column layout, tolerating reordered columns and
// sloppy casing or spacing in header names.
func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[normalizeHeader(name)] = i
	}
	// "Sub Topic" and "Sub-topic" show up in older sheets.
	if _, ok := cols[colSubtopic]; !ok {
		if idx, ok := cols["sub topic"]; ok {
			cols[colSubtopic] = idx
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func normalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
