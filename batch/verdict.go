package batch

// Verdict is the evaluation outcome for one record.
type Verdict string

const (
	VerdictPass   Verdict = "PASS"
	VerdictFail   Verdict = "FAIL"
	VerdictReview Verdict = "REVIEW"
)

// ErrorSentinel marks records whose pipeline call failed outright.
const ErrorSentinel = "ERROR"

// Classify derives the verdict from expected vs. actual intent under a
// confidence gate. The gate comes first: a correct match below minConf is
// still REVIEW, never PASS. confidence is nil when the pipeline produced no
// intent at all.
func Classify(expected, actual string, confidence *float64, minConf float64) Verdict {
	if confidence == nil || *confidence < minConf {
		return VerdictReview
	}
	if actual == expected {
		return VerdictPass
	}
	return VerdictFail
}
