package classifier

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

func newTestTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.New(
		[]taxonomy.Group{
			{ID: "3", Name: "Cards & Controls", Description: "Card management", IntentIDs: []string{"i1", "i2"}},
			{ID: "7", Name: "Payments", Description: "Money movement", IntentIDs: []string{"i2", "i3"}},
		},
		[]taxonomy.Intent{
			{ID: "i1", Name: "Report Lost Card", Description: "Report a lost or stolen card"},
			{ID: "i2", Name: "Block Card", Description: "Temporarily block a card"},
			{ID: "i3", Name: "Transfer Money", Description: "Send money to another account"},
		},
	)
	if err != nil {
		t.Fatalf("failed to build taxonomy: %v", err)
	}
	return tax
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return &Parser{tax: newTestTaxonomy(t), log: zap.NewNop()}
}

func TestParser_GroupBareObject(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseGroups(`{"group_name":"Cards & Controls","group_id":"3","confidence":0.92}`)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].GroupID != "3" || got[0].Confidence != 0.92 {
		t.Errorf("unexpected candidate: %+v", got[0])
	}
}

func TestParser_GroupEnvelope(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseGroups(`{"Groups":[
		{"group_name":"Cards & Controls","group_id":"3","confidence":0.9},
		{"group_name":"Payments","group_id":"7","confidence":0.4}
	]}`)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[1].GroupName != "Payments" {
		t.Errorf("expected second candidate Payments, got %s", got[1].GroupName)
	}
}

func TestParser_GroupMissingIDResolvedByName(t *testing.T) {
	p := newTestParser(t)

	// name with stray whitespace, entity encoding and different case
	got := p.ParseGroups(`{"group_name":"  cards &amp; controls ","confidence":0.8}`)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].GroupID != "3" {
		t.Errorf("expected resolved id 3, got %q", got[0].GroupID)
	}
}

func TestParser_GroupUnresolvableNameDropped(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseGroups(`{"group_name":"Mortgages","confidence":0.8}`)

	if len(got) != 0 {
		t.Errorf("expected unresolvable candidate to be dropped, got %v", got)
	}
}

func TestParser_GroupNonNumericConfidence(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseGroups(`{"group_name":"Payments","group_id":"7","confidence":"High"}`)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Confidence != 0 {
		t.Errorf("expected non-numeric confidence coerced to 0, got %f", got[0].Confidence)
	}
}

func TestParser_GroupMalformedJSON(t *testing.T) {
	p := newTestParser(t)

	if got := p.ParseGroups("not json"); len(got) != 0 {
		t.Errorf("expected empty candidates for malformed input, got %v", got)
	}
}

func TestParser_GroupEmptyObject(t *testing.T) {
	p := newTestParser(t)

	if got := p.ParseGroups("{}"); len(got) != 0 {
		t.Errorf("expected empty candidates for {}, got %v", got)
	}
}

func TestParser_IntentEnvelope(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseIntents(`{"Intents":[
		{"Intent":"Block Card","Score":0.71},
		{"Intent":"Report Lost Card","Score":0.95}
	]}`, 0.6)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Intent != "Report Lost Card" {
		t.Errorf("expected descending sort, got %v", got)
	}
}

func TestParser_IntentScoreRequired(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseIntents(`{"Intents":[
		{"Intent":"Block Card"},
		{"Intent":"Report Lost Card","Score":"High"},
		{"Intent":"Transfer Money","Score":0.9}
	]}`, 0.6)

	if len(got) != 1 || got[0].Intent != "Transfer Money" {
		t.Errorf("expected entries without numeric score excluded, got %v", got)
	}
}

func TestParser_IntentMinScoreFilter(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseIntents(`{"Intents":[
		{"Intent":"Report Lost Card","Score":0.95},
		{"Intent":"Block Card","Score":0.30}
	]}`, 0.6)

	if len(got) != 1 {
		t.Errorf("expected candidates below min score filtered, got %v", got)
	}
}

func TestParser_IntentTwoDecimalRounding(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseIntents(`{"Intents":[{"Intent":"Block Card","Score":0.9567}]}`, 0.6)

	if len(got) != 1 || got[0].Score != 0.96 {
		t.Errorf("expected score rounded to two decimals, got %v", got)
	}
}

func TestParser_IntentMalformedJSON(t *testing.T) {
	p := newTestParser(t)

	if got := p.ParseIntents("not json", 0.6); len(got) != 0 {
		t.Errorf("expected empty candidates for malformed input, got %v", got)
	}
}

func TestParser_StripsMarkdownFences(t *testing.T) {
	p := newTestParser(t)

	got := p.ParseGroups("```json\n{\"group_name\":\"Payments\",\"group_id\":\"7\",\"confidence\":0.7}\n```")

	if len(got) != 1 || got[0].GroupID != "7" {
		t.Errorf("expected fenced JSON to parse, got %v", got)
	}
}
