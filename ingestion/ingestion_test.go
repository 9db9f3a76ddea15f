package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = Options{DefaultIdealSeconds: 60, DefaultDurationMinutes: 30}

const validCSV = `Question ID,Question Text,Option A,Option B,Option C,Option D,Correct Answer,Subject,Topic,Sub Topic,Difficulty Level,Bloom Level,Priority Level,Time to Solve
q1,What is 2+2?,4,5,6,7,a,Math,Arithmetic,Addition,Easy,Recall,High,45
q2,Capital of France?,Berlin,Paris,Rome,Madrid,B,Geography,Capitals,Europe,Medium,Recall,Low,
`

func writeBank(t *testing.T, yamlBody, csvBody string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.yaml"), []byte(yamlBody), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.csv"), []byte(csvBody), 0644))
	return dir
}

func TestLoadBank(t *testing.T) {
	dir := writeBank(t, "test_id: mock-1\ntitle: Mock Test 1\ntime_limit_minutes: 45\n", validCSV)

	bank, err := LoadBank(dir, testOpts)
	require.NoError(t, err)

	assert.Equal(t, "mock-1", bank.ID)
	assert.Equal(t, "Mock Test 1", bank.Title)
	assert.InDelta(t, 45*60, bank.DurationSeconds, 0.001)
	require.Len(t, bank.Questions, 2)

	q1 := bank.Questions[0]
	assert.Equal(t, "q1", q1.ID)
	assert.Equal(t, "A", q1.CorrectOption) // upper-cased
	assert.Equal(t, "Addition", q1.Subtopic)
	assert.InDelta(t, 45, q1.IdealTimeSeconds, 0.001)

	// q2 has no "Time to Solve" value and falls back to the default.
	assert.InDelta(t, 60, bank.Questions[1].IdealTimeSeconds, 0.001)
}

func TestLoadBankMetadataDefaults(t *testing.T) {
	dir := writeBank(t, "{}\n", validCSV)

	bank, err := LoadBank(dir, testOpts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), bank.ID)
	assert.Equal(t, bank.ID, bank.Title)
	assert.InDelta(t, 30*60, bank.DurationSeconds, 0.001)
}

func TestLoadBankSloppyHeaders(t *testing.T) {
	csvBody := `QUESTION id, question   Text ,OPTION A,option b,Option C,Option D,CORRECT ANSWER,Subject,Topic,Sub-Topic,DIFFICULTY LEVEL,Bloom Level,Priority Level,Time To Solve
q1,What is 2+2?,4,5,6,7,A,Math,Arithmetic,Addition,Easy,Recall,High,45
`
	dir := writeBank(t, "test_id: mock-1\n", csvBody)

	bank, err := LoadBank(dir, testOpts)
	require.NoError(t, err)
	require.Len(t, bank.Questions, 1)
	assert.Equal(t, "Addition", bank.Questions[0].Subtopic)
}

func TestLoadBankValidation(t *testing.T) {
	cases := []struct {
		name    string
		csvBody string
		wantErr string
	}{
		{
			name: "missing column",
			csvBody: `Question ID,Question Text,Option A,Option B,Option C,Option D,Subject,Topic,Difficulty Level
q1,What?,a,b,c,d,Math,Algebra,Easy
`,
			wantErr: `missing required column "correct answer"`,
		},
		{
			name: "missing field",
			csvBody: `Question ID,Question Text,Option A,Option B,Option C,Option D,Correct Answer,Subject,Topic,Difficulty Level
q1,,a,b,c,d,A,Math,Algebra,Easy
`,
			wantErr: `line 2: missing "question text"`,
		},
		{
			name: "bad correct answer",
			csvBody: `Question ID,Question Text,Option A,Option B,Option C,Option D,Correct Answer,Subject,Topic,Difficulty Level
q1,What?,a,b,c,d,E,Math,Algebra,Easy
`,
			wantErr: "correct answer must be one of A-D",
		},
		{
			name: "duplicate id",
			csvBody: `Question ID,Question Text,Option A,Option B,Option C,Option D,Correct Answer,Subject,Topic,Difficulty Level
q1,What?,a,b,c,d,A,Math,Algebra,Easy
q1,Again?,a,b,c,d,B,Math,Algebra,Easy
`,
			wantErr: `line 3: duplicate question id "q1"`,
		},
		{
			name:    "no data rows",
			csvBody: "Question ID,Question Text,Option A,Option B,Option C,Option D,Correct Answer,Subject,Topic,Difficulty Level\n",
			wantErr: "at least one question",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeBank(t, "test_id: mock-1\n", tc.csvBody)
			_, err := LoadBank(dir, testOpts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCatalogReload(t *testing.T) {
	root := t.TempDir()

	good := filepath.Join(root, "mock-1")
	require.NoError(t, os.Mkdir(good, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(good, "bank.yaml"),
		[]byte("test_id: mock-1\ntitle: Mock Test 1\ntime_limit_minutes: 45\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(good, "questions.csv"), []byte(validCSV), 0644))

	// A directory with a bank.yaml but a broken sheet is skipped, not fatal.
	bad := filepath.Join(root, "broken")
	require.NoError(t, os.Mkdir(bad, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "bank.yaml"), []byte("test_id: broken\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "questions.csv"), []byte("not,a,header\n"), 0644))

	// A directory without a bank.yaml is not a bank at all.
	require.NoError(t, os.Mkdir(filepath.Join(root, "scratch"), 0755))

	catalog := NewCatalog(root, testOpts, nil)
	require.NoError(t, catalog.Reload())

	list := catalog.List()
	require.Len(t, list, 1)
	assert.Equal(t, "mock-1", list[0].ID)
	assert.Equal(t, 2, list[0].QuestionCount)

	bank, ok := catalog.Get("mock-1")
	require.True(t, ok)
	assert.Equal(t, "Mock Test 1", bank.Title)

	_, ok = catalog.Get("broken")
	assert.False(t, ok)
}
