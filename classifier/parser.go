package classifier

import (
	"math"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

// Parser normalizes the service's free-form JSON replies into candidate
// lists. It accepts both a bare object and the enveloped array form, and
// never fails on malformed input: a reply that cannot be parsed yields an
// empty candidate list and a logged diagnostic.
type Parser struct {
	tax *taxonomy.Taxonomy
	log *zap.Logger
}

func NewParser(rc *RunContext) *Parser {
	return &Parser{tax: rc.Taxonomy, log: rc.Log}
}

// ParseGroups extracts group candidates from a group-stage reply. A missing
// group_id is resolved by normalized name lookup; candidates that resolve to
// no known group are dropped. Missing or non-numeric confidence counts as 0.
func (p *Parser) ParseGroups(raw string) []GroupCandidate {
	raw = stripFences(raw)
	if !gjson.Valid(raw) {
		p.log.Warn("group reply is not valid JSON", zap.String("raw", raw))
		return nil
	}

	root := gjson.Parse(raw)
	var items []gjson.Result
	switch {
	case root.Get("Groups").IsArray():
		items = root.Get("Groups").Array()
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil
	}

	candidates := make([]GroupCandidate, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Get("group_name").String())
		if name == "" {
			continue
		}

		id := strings.TrimSpace(item.Get("group_id").String())
		if id == "" {
			g, ok := p.tax.GroupByName(name)
			if !ok {
				p.log.Debug("dropping group candidate with unresolvable name", zap.String("group_name", name))
				continue
			}
			id = g.ID
		}

		conf := item.Get("confidence").Float()
		if conf < 0 {
			conf = 0
		}
		candidates = append(candidates, GroupCandidate{
			GroupID:    id,
			GroupName:  name,
			Confidence: conf,
		})
	}

	return candidates
}

// ParseIntents extracts intent candidates from an intent-stage reply. Score
// is structurally required: entries without a numeric Score are excluded.
// The output is sorted descending by score and filtered to minScore.
func (p *Parser) ParseIntents(raw string, minScore float64) []IntentCandidate {
	raw = stripFences(raw)
	if !gjson.Valid(raw) {
		p.log.Warn("intent reply is not valid JSON", zap.String("raw", raw))
		return nil
	}

	root := gjson.Parse(raw)
	var items []gjson.Result
	switch {
	case root.Get("Intents").IsArray():
		items = root.Get("Intents").Array()
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil
	}

	candidates := make([]IntentCandidate, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Get("Intent").String())
		if name == "" {
			continue
		}
		score := item.Get("Score")
		if !score.Exists() || score.Type != gjson.Number {
			p.log.Debug("dropping intent candidate without numeric score", zap.String("intent", name))
			continue
		}
		s := roundScore(score.Float())
		if s < minScore {
			continue
		}
		candidates = append(candidates, IntentCandidate{Intent: name, Score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

// roundScore keeps intent scores at two-decimal precision.
func roundScore(s float64) float64 {
	return math.Round(s*100) / 100
}

// stripFences removes markdown code fences the model sometimes wraps JSON in
// despite being told not to.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
