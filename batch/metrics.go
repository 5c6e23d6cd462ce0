package batch

import "sort"

// LabelMetrics holds precision/recall/F1 for one intent label.
type LabelMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report aggregates classification quality over the evaluable subset of a
// batch: rows that are neither REVIEW nor error sentinels.
type Report struct {
	PerLabel  map[string]LabelMetrics `json:"per_label"`
	Accuracy  float64                 `json:"accuracy"`
	MacroF1   float64                 `json:"macro_f1"`
	Evaluated int                     `json:"evaluated"`
	Skipped   int                     `json:"skipped"`
}

// ConfusionMatrix counts expected vs. actual intent pairs.
type ConfusionMatrix struct {
	Labels []string
	Counts map[string]map[string]int
}

// evaluable reports whether a record participates in metric computation.
func evaluable(r EvaluationRecord) bool {
	return r.Status != VerdictReview && r.ActualIntent != ErrorSentinel && r.ActualIntent != ""
}

// ComputeReport derives per-label precision/recall/F1 and overall accuracy
// from the evaluable records.
func ComputeReport(records []EvaluationRecord) Report {
	rep := Report{PerLabel: make(map[string]LabelMetrics)}

	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	support := make(map[string]int)
	correct := 0

	for _, r := range records {
		if !evaluable(r) {
			rep.Skipped++
			continue
		}
		rep.Evaluated++
		support[r.ExpectedIntent]++
		if r.ActualIntent == r.ExpectedIntent {
			tp[r.ExpectedIntent]++
			correct++
		} else {
			fn[r.ExpectedIntent]++
			fp[r.ActualIntent]++
		}
	}

	labels := make(map[string]bool)
	for l := range support {
		labels[l] = true
	}
	for l := range fp {
		labels[l] = true
	}

	var f1Sum float64
	for l := range labels {
		m := LabelMetrics{Support: support[l]}
		if denom := tp[l] + fp[l]; denom > 0 {
			m.Precision = float64(tp[l]) / float64(denom)
		}
		if denom := tp[l] + fn[l]; denom > 0 {
			m.Recall = float64(tp[l]) / float64(denom)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rep.PerLabel[l] = m
		f1Sum += m.F1
	}

	if rep.Evaluated > 0 {
		rep.Accuracy = float64(correct) / float64(rep.Evaluated)
	}
	if len(rep.PerLabel) > 0 {
		rep.MacroF1 = f1Sum / float64(len(rep.PerLabel))
	}

	return rep
}

// ComputeConfusion builds the expected-vs-actual count matrix over the
// evaluable records, labels sorted for stable output.
func ComputeConfusion(records []EvaluationRecord) ConfusionMatrix {
	counts := make(map[string]map[string]int)
	labelSet := make(map[string]bool)

	for _, r := range records {
		if !evaluable(r) {
			continue
		}
		labelSet[r.ExpectedIntent] = true
		labelSet[r.ActualIntent] = true
		if counts[r.ExpectedIntent] == nil {
			counts[r.ExpectedIntent] = make(map[string]int)
		}
		counts[r.ExpectedIntent][r.ActualIntent]++
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return ConfusionMatrix{Labels: labels, Counts: counts}
}
