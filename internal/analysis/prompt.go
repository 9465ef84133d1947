// File path: internal/analysis/prompt.go
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// The prompt text below is a versioned safety contract with the downstream
// language model, not presentation copy. The policy clauses and the fallback
// sentence must appear verbatim; tests assert on the exact wording.

// LimitedDifferencesFallback is the sentence the model is instructed to emit
// when no clear pattern exists, and the string served when the model returns
// empty output.
const LimitedDifferencesFallback = "The records show limited explicit textual differences over time."

const overviewPolicy = `Strict rules:
- Do NOT diagnose any disease.
- Do NOT guess disease names.
- Do NOT suggest treatment.
- Do NOT infer causes.
- Only describe observable patterns over time.`

const explanationPolicy = `You must follow these rules strictly:

- Do NOT diagnose any condition.
- Do NOT infer causes.
- Do NOT suggest treatments.
- Only describe differences that are explicit or strongly implied by the text.
- If differences are unclear, say so.`

// BuildOverviewPrompt renders the guarded timeline-overview prompt. Entries
// appear in timeline order, one line per event.
func BuildOverviewPrompt(timeline []record.TimelineEntry) string {
	lines := make([]string, 0, len(timeline))
	for _, entry := range timeline {
		lines = append(lines, fmt.Sprintf("- %s: %s → %s", entry.Timestamp, entry.EventType, entry.Content))
	}
	return fmt.Sprintf(`You are a medical timeline summarization assistant.

Your task is to give an overall overview of a patient's medical records.

%s

Focus on:
- Frequency of visits or records
- Changes in monitoring or follow-ups
- Whether records suggest stability, escalation, or continuity
- Gaps or clustering in time

Timeline:
%s

Write a concise, neutral overview of the patient's medical history.
If records are vague, say so explicitly.
Also, mention timestamps only if they are important to describing change.`,
		overviewPolicy, strings.Join(lines, "\n"))
}

// BuildExplanationPrompt renders the guarded pairwise-explanation prompt from
// the two record bodies and the structured difference between them.
func BuildExplanationPrompt(earliestText, latestText string, diff record.DifferenceReport) string {
	return fmt.Sprintf(`You are a medical record comparison assistant.

Your task is to describe how two medical records differ over time.
%s

Context:
Time range: %s to %s
Semantic change score: %s
Change level: %s

Earlier record:
"""
%s
"""

Later record:
"""
%s
"""

Now write a short, neutral explanation of how the content changed over time.
If no clear differences are explicitly stated, say:
"%s"`,
		explanationPolicy,
		diff.TimeRange.From, diff.TimeRange.To,
		strconv.FormatFloat(diff.SemanticShift, 'g', -1, 64),
		diff.ChangeLevel,
		earliestText, latestText,
		LimitedDifferencesFallback)
}
