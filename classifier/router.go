package classifier

import "sort"

// Router selects the working set of groups from parsed group-stage output.
type Router struct {
	opts Options
}

func NewRouter(rc *RunContext) *Router {
	return &Router{opts: rc.Options}
}

// Select sorts the candidates by confidence (stable, so exact ties keep
// their original order) and walks the list, admitting a candidate when it
// clears the confidence threshold or sits within the tie window of the
// leader, up to TopK. When nothing qualifies, the single best candidate is
// kept so the intent stage still has a working set. An empty input returns
// an empty selection, which tells the pipeline to skip the intent stage.
func (r *Router) Select(candidates []GroupCandidate) []GroupCandidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]GroupCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	top1 := sorted[0].Confidence

	selected := make([]GroupCandidate, 0, r.opts.TopK)
	for _, c := range sorted {
		if len(selected) >= r.opts.TopK {
			break
		}
		if c.Confidence >= r.opts.MinConfidence || top1-c.Confidence <= r.opts.TieDelta {
			selected = append(selected, c)
		}
	}

	if len(selected) == 0 {
		selected = append(selected, sorted[0])
	}

	return selected
}
