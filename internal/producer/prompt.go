package producer

import (
	"strings"

	"github.com/rendis/conform/internal/constraint"
)

// BuildGenerationPrompt builds the initial request for the producer:
// the caller's instructions followed by the exported JSON Schema the
// response must satisfy. The model is compile-checked first so an
// ill-formed export is caught here, not by the producer.
func BuildGenerationPrompt(instructions string, model *constraint.Node, compiler *constraint.Compiler) (string, error) {
	if _, err := compiler.Compile(model); err != nil {
		return "", err
	}

	schemaJSON, err := constraint.ExportJSON(model)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nRespond with a single JSON object that conforms to this JSON Schema:\n\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nReturn only the JSON object, with no surrounding text or code fences.\n")
	return b.String(), nil
}

// BuildRetryPrompt builds a corrective request after a failed validation:
// the original instructions, the rejected output, and the formatted
// violation feedback, verbatim. The feedback text already names every
// defect found in one pass, so one retry round can fix them all.
func BuildRetryPrompt(instructions, rejected, feedback string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nYour previous response did not satisfy the required schema.\n\nPrevious response:\n")
	b.WriteString(strings.TrimSpace(rejected))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\nFix every issue listed above and respond again with only the corrected JSON object.\n")
	return b.String()
}
