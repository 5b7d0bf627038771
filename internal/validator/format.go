package validator

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rendis/conform/pkg/schema"
)

// printer renders the issue count with English formatting.
var printer = message.NewPrinter(language.English)

// Format renders a violation list as compact feedback text: a count header,
// then one line per violation with its path, constraint description, and the
// truncated offending value. The output is deterministic for identical input
// and is designed to be embedded verbatim in a corrective re-generation
// request; it names only payload paths and constraint descriptions, never
// internal identifiers.
func Format(violations []schema.Violation) string {
	if len(violations) == 0 {
		return ""
	}

	var b strings.Builder
	if len(violations) == 1 {
		b.WriteString("The payload has 1 issue:\n")
	} else {
		b.WriteString(printer.Sprintf("The payload has %d issues:\n", len(violations)))
	}
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v.Path)
		b.WriteString(": ")
		b.WriteString(v.Message)
		b.WriteString(" (expected ")
		b.WriteString(v.Expected)
		b.WriteString(", got ")
		b.WriteString(v.Received)
		b.WriteString(")\n")
	}
	return b.String()
}
