package classifier

import (
	"fmt"
	"strings"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

// PromptBuilder renders the group-stage and intent-stage prompts. It is a
// pure function of the taxonomy and the utterance.
type PromptBuilder struct {
	tax *taxonomy.Taxonomy
}

func NewPromptBuilder(rc *RunContext) *PromptBuilder {
	return &PromptBuilder{tax: rc.Taxonomy}
}

// GroupPrompt enumerates every group and asks the service to pick the best
// matching ones as JSON.
func (b *PromptBuilder) GroupPrompt(utterance string) string {
	var groups strings.Builder
	for _, g := range b.tax.Groups() {
		fmt.Fprintf(&groups, "%s) %s - %s\n", g.ID, g.Name, g.Description)
	}

	return strings.TrimSpace(fmt.Sprintf(`You are a banking intent GROUP classifier.

Task:
1. Identify which intent GROUP the user's utterance belongs to.
2. Match only against the list of intent groups provided below.
3. NEVER guess. If no clear match exists, return {}
4. Respond ONLY in valid JSON. No markdown, no explanation.

Intent Groups:
%sRules:
1. Choose the group whose description best matches the user utterance.
2. Confidence is a number between 0 and 1.
3. If several groups plausibly match, you may return more than one.

Respond ONLY with a single JSON object:
{"group_name": "<group_name>", "group_id": "<group_id>", "confidence": <0.0-1.0>}
or, for multiple matches:
{"Groups": [{"group_name": "<group_name>", "group_id": "<group_id>", "confidence": <0.0-1.0>}]}

User utterance: %s`, groups.String(), utterance))
}

// IntentPrompt enumerates only the given intents and asks for scored matches
// as JSON. Callers must not pass an empty candidate list; the pipeline skips
// the intent stage instead.
func (b *PromptBuilder) IntentPrompt(utterance string, candidates []taxonomy.Intent, minScore float64) string {
	var intents strings.Builder
	for i, in := range candidates {
		fmt.Fprintf(&intents, "%d. %s : %s\n", i+1, in.Name, in.Description)
	}

	return strings.TrimSpace(fmt.Sprintf(`You are an intent classifier and digital banking assistant.
You MUST:
1. Match this user utterance EXACTLY to the predefined list of intents provided below.
2. If no match exists, return {"Intents": []}
3. NEVER guess or approximate an intent.

List of Intents and Descriptions:
%sRules:
1. Score every returned intent between 0.00 and 1.00 with two decimals.
2. Sort the list by Score, highest first.
3. Do not return intents scoring below %.2f.
4. Respond ONLY in English.
5. DO NOT include explanatory text.
6. DO NOT use markdown or code blocks.

Respond ONLY in valid JSON:
{"Intents": [{"Intent": "<intent_name>", "Score": <0.00-1.00>}]}

User utterance: %s`, intents.String(), minScore, utterance))
}
