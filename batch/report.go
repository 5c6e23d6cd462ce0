package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// LoadDataset reads the labeled input CSV. The first row must be a header;
// the first two columns are utterance and expected_intent. Rows with fewer
// than two columns are skipped.
func LoadDataset(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset file must have at least a header and one row")
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		records = append(records, Record{
			Utterance:      row[0],
			ExpectedIntent: row[1],
		})
	}

	return records, nil
}

var resultHeader = []string{
	"utterance", "expected_intent", "detected_group", "group_confidence",
	"actual_intent", "intent_confidence", "status",
	"total_tokens_used", "total_input_tokens", "total_output_tokens",
	"group_llm_sec", "intent_llm_sec", "all_groups", "all_intents",
}

// WriteResults writes the full evaluation output CSV.
func WriteResults(path string, records []EvaluationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(resultHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Utterance,
			r.ExpectedIntent,
			r.DetectedGroup,
			formatOptFloat(r.GroupConfidence),
			r.ActualIntent,
			formatOptFloat(r.IntentConfidence),
			string(r.Status),
			strconv.Itoa(r.TotalTokens),
			strconv.Itoa(r.InputTokens),
			strconv.Itoa(r.OutputTokens),
			strconv.FormatFloat(r.GroupSeconds, 'f', 3, 64),
			strconv.FormatFloat(r.IntentSeconds, 'f', 3, 64),
			marshalOrEmpty(r.AllGroups),
			marshalOrEmpty(r.AllIntents),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func marshalOrEmpty(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Summary is the per-run metrics file written alongside the output CSV.
type Summary struct {
	TotalRecords int           `json:"total_records"`
	Duration     time.Duration `json:"duration_ns"`
	TotalTokens  int           `json:"total_tokens"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Passed       int           `json:"passed"`
	Failed       int           `json:"failed"`
	Review       int           `json:"review"`
	Errors       int           `json:"errors"`
	Report       Report        `json:"report"`
}

// BuildSummary folds the batch outcome into a Summary.
func BuildSummary(records []EvaluationRecord, duration time.Duration) Summary {
	s := Summary{
		TotalRecords: len(records),
		Duration:     duration,
		Report:       ComputeReport(records),
	}
	for _, r := range records {
		s.TotalTokens += r.TotalTokens
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
		switch r.Status {
		case VerdictPass:
			s.Passed++
		case VerdictFail:
			s.Failed++
		case VerdictReview:
			s.Review++
		}
		if r.ActualIntent == ErrorSentinel {
			s.Errors++
		}
	}
	return s
}

// SaveSummary writes the summary JSON to a uniquely named file in dir and
// returns the path.
func SaveSummary(dir string, summary Summary) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	random := uuid.New().String()[:8]
	path := fmt.Sprintf("%s/metrics_%s_%s.json", dir, timestamp, random)

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", err
	}

	return path, nil
}

// WriteConfusionCSV writes the confusion matrix with expected intents as
// rows and actual intents as columns.
func WriteConfusionCSV(path string, m ConfusionMatrix) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create confusion matrix file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := append([]string{"expected\\actual"}, m.Labels...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, expected := range m.Labels {
		row := make([]string, 0, len(m.Labels)+1)
		row = append(row, expected)
		for _, actual := range m.Labels {
			row = append(row, strconv.Itoa(m.Counts[expected][actual]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
