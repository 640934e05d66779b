// Package extract turns completion-service replies into validated candidate
// records and recovers fields the model missed with deterministic heuristics.
package extract

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-extractor/internal/prompts"
)

// maxPromptChars caps each resume's contribution to the prompt to stay under
// the model's token limit.
const maxPromptChars = 15000

// BuildBatchPrompt constructs the strict-JSON parsing prompt covering one or
// more resumes. The i-th output record corresponds to the i-th input text.
func BuildBatchPrompt(texts []string) string {
	var sb strings.Builder
	for i, text := range texts {
		if len(text) > maxPromptChars {
			text = text[:maxPromptChars] + "..."
		}
		sb.WriteString(fmt.Sprintf("Resume %d:\n%s\n\n", i+1, text))
	}

	template := prompts.MustGet("extraction.json", "parse-resume-batch")
	return prompts.Format(template, map[string]string{
		"ResumeBlock": sb.String(),
		"Count":       fmt.Sprintf("%d", len(texts)),
	})
}
