package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mathanleo/Mashreq/classifier"
)

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	content := "utterance,expected_intent\nI lost my card,Report Lost Card\nwhat's my balance,Get Balance\nshort-row\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := LoadDataset(path)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "I lost my card", records[0].Utterance)
	assert.Equal(t, "Report Lost Card", records[0].ExpectedIntent)
}

func TestLoadDataset_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("utterance,expected_intent\n"), 0644))

	_, err := LoadDataset(path)
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	groupConf := 0.92
	intentConf := 0.95
	records := []EvaluationRecord{
		{
			Utterance:        "I lost my card",
			ExpectedIntent:   "Report Lost Card",
			DetectedGroup:    "Cards & Controls",
			GroupConfidence:  &groupConf,
			ActualIntent:     "Report Lost Card",
			IntentConfidence: &intentConf,
			Status:           VerdictPass,
			TotalTokens:      120,
			InputTokens:      100,
			OutputTokens:     20,
			GroupSeconds:     0.412,
			IntentSeconds:    0.388,
			AllGroups:        []classifier.GroupCandidate{{GroupID: "3", GroupName: "Cards & Controls", Confidence: 0.92}},
			AllIntents:       []classifier.IntentCandidate{{Intent: "Report Lost Card", Score: 0.95}},
		},
		{
			Utterance:      "gibberish",
			ExpectedIntent: "Get Balance",
			ActualIntent:   ErrorSentinel,
			Status:         VerdictReview,
			GroupSeconds:   -1,
			IntentSeconds:  -1,
		},
	}

	require.NoError(t, WriteResults(path, records))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, resultHeader, rows[0])
	assert.Equal(t, "0.92", rows[1][3])
	assert.Equal(t, "PASS", rows[1][6])
	assert.Equal(t, "0.412", rows[1][10])
	assert.Contains(t, rows[1][13], `"Intent":"Report Lost Card"`)

	assert.Equal(t, "", rows[2][3], "absent confidence must serialize empty")
	assert.Equal(t, "ERROR", rows[2][4])
	assert.Equal(t, "-1.000", rows[2][10])
}

func TestSaveSummaryAndConfusionCSV(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveSummary(dir, Summary{TotalRecords: 5})
	require.NoError(t, err)
	assert.FileExists(t, path)

	m := ConfusionMatrix{
		Labels: []string{"A", "B"},
		Counts: map[string]map[string]int{"A": {"A": 2, "B": 1}},
	}
	confPath := filepath.Join(dir, "confusion.csv")
	require.NoError(t, WriteConfusionCSV(confPath, m))

	file, err := os.Open(confPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A", "2", "1"}, rows[1])
	assert.Equal(t, []string{"B", "0", "0"}, rows[2])
}
