package classifier

import (
	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

// Aggregator expands selected groups into their member intents for the
// intent-stage prompt.
type Aggregator struct {
	tax *taxonomy.Taxonomy
	log *zap.Logger
}

func NewAggregator(rc *RunContext) *Aggregator {
	return &Aggregator{tax: rc.Taxonomy, log: rc.Log}
}

// Expand resolves each selected group's member intents in router order,
// deduplicated case-insensitively by intent name since an intent can belong
// to several groups. A group id that no longer resolves in the taxonomy is
// skipped; partial results beat total failure.
func (a *Aggregator) Expand(selected []GroupCandidate) []taxonomy.Intent {
	seen := make(map[string]bool)
	var intents []taxonomy.Intent

	for _, g := range selected {
		members := a.tax.IntentsForGroup(g.GroupID)
		if members == nil {
			a.log.Debug("selected group not found in taxonomy, skipping",
				zap.String("group_id", g.GroupID), zap.String("group_name", g.GroupName))
			continue
		}
		for _, in := range members {
			key := taxonomy.NormalizeName(in.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			intents = append(intents, in)
		}
	}

	return intents
}
