// Package taxonomy holds the immutable group/intent hierarchy the classifier
// routes against. It is built once per run from already-parsed config data
// and is safe for concurrent reads.
package taxonomy

import (
	"fmt"
	"html"
	"strings"
)

// Intent is a single fine-grained classification target.
type Intent struct {
	ID          string
	Name        string
	Description string
}

// Group is a coarse category owning one or more intents. The same intent may
// belong to several groups.
type Group struct {
	ID          string
	Name        string
	Description string
	IntentIDs   []string
}

// Taxonomy is the read-only collection of groups and intents.
type Taxonomy struct {
	groups  []Group
	intents []Intent

	groupsByID   map[string]*Group
	groupsByName map[string]*Group
	intentsByID  map[string]*Intent
}

// New validates the raw groups and intents and builds the lookup indexes.
// Validation enforces two invariants the router depends on: group names are
// unique under case-insensitive comparison, and every intent id referenced
// by a group resolves to a known intent.
func New(groups []Group, intents []Intent) (*Taxonomy, error) {
	t := &Taxonomy{
		groups:       groups,
		intents:      intents,
		groupsByID:   make(map[string]*Group, len(groups)),
		groupsByName: make(map[string]*Group, len(groups)),
		intentsByID:  make(map[string]*Intent, len(intents)),
	}

	for i := range intents {
		in := &t.intents[i]
		if in.ID == "" {
			return nil, fmt.Errorf("intent %q has no id", in.Name)
		}
		if _, dup := t.intentsByID[in.ID]; dup {
			return nil, fmt.Errorf("duplicate intent id %q", in.ID)
		}
		t.intentsByID[in.ID] = in
	}

	for i := range groups {
		g := &t.groups[i]
		if g.ID == "" {
			return nil, fmt.Errorf("group %q has no id", g.Name)
		}
		if _, dup := t.groupsByID[g.ID]; dup {
			return nil, fmt.Errorf("duplicate group id %q", g.ID)
		}
		key := NormalizeName(g.Name)
		if key == "" {
			return nil, fmt.Errorf("group id %q has no name", g.ID)
		}
		if _, dup := t.groupsByName[key]; dup {
			return nil, fmt.Errorf("duplicate group name %q", g.Name)
		}
		for _, intentID := range g.IntentIDs {
			if _, ok := t.intentsByID[intentID]; !ok {
				return nil, fmt.Errorf("group %q references unknown intent id %q", g.Name, intentID)
			}
		}
		t.groupsByID[g.ID] = g
		t.groupsByName[key] = g
	}

	return t, nil
}

// NormalizeName folds a group name for lookup: trims whitespace, decodes
// HTML entities the model sometimes emits, and lowercases.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(html.UnescapeString(name)))
}

// Groups returns all groups in their declared order.
func (t *Taxonomy) Groups() []Group {
	return t.groups
}

// Intents returns all intents in their declared order.
func (t *Taxonomy) Intents() []Intent {
	return t.intents
}

// GroupByID looks up a group by its id.
func (t *Taxonomy) GroupByID(id string) (Group, bool) {
	g, ok := t.groupsByID[id]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// GroupByName looks up a group by normalized name.
func (t *Taxonomy) GroupByName(name string) (Group, bool) {
	g, ok := t.groupsByName[NormalizeName(name)]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// IntentByID looks up an intent by its id.
func (t *Taxonomy) IntentByID(id string) (Intent, bool) {
	in, ok := t.intentsByID[id]
	if !ok {
		return Intent{}, false
	}
	return *in, true
}

// IntentsForGroup resolves a group's member intents in declaration order.
// Unknown group ids yield a nil slice.
func (t *Taxonomy) IntentsForGroup(groupID string) []Intent {
	g, ok := t.groupsByID[groupID]
	if !ok {
		return nil
	}
	intents := make([]Intent, 0, len(g.IntentIDs))
	for _, id := range g.IntentIDs {
		if in, ok := t.intentsByID[id]; ok {
			intents = append(intents, *in)
		}
	}
	return intents
}
