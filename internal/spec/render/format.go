// File path: internal/spec/render/format.go
package render

import (
	"strings"

	"github.com/calhayes/specview/internal/spec/ertree"
)

// fileIoOperations maps raw spec operation tokens to their readable forms.
var fileIoOperations = map[string]string{
	"FETCH_SINGLE": "FetchSingle",
	"FETCH_NEXT":   "FetchNext",
	"SELECT":       "Select",
	"DELETE":       "Delete",
	"UPDATE":       "Update",
	"INSERT":       "Insert",
}

// FormatFileIoOperation renders a raw file I/O operation token. Known tokens
// map to their fixed readable form regardless of case or surrounding
// whitespace; unknown tokens keep their content with underscores removed;
// blank input falls back to "Operation".
func FormatFileIoOperation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Operation"
	}
	if formatted, ok := fileIoOperations[strings.ToUpper(trimmed)]; ok {
		return formatted
	}
	return strings.ReplaceAll(trimmed, "_", "")
}

// FormatLiteralValue renders a literal operand: a string child double-quoted,
// a numeric child as its raw text, otherwise the operand's own text trimmed.
func FormatLiteralValue(lit *ertree.Literal) string {
	if lit == nil {
		return ""
	}
	if lit.StringValue != nil {
		return `"` + *lit.StringValue + `"`
	}
	if lit.NumericValue != nil {
		return *lit.NumericValue
	}
	return strings.TrimSpace(lit.Text)
}

// FormatBusinessFunctionParamLine renders one business function parameter
// with the data-flow arrow implied by its copy word.
func FormatBusinessFunctionParamLine(copyWord, left, right string) string {
	switch strings.ToUpper(strings.TrimSpace(copyWord)) {
	case "OUT":
		return left + " <- " + right
	case "INOUT":
		return left + " <-> " + right
	default:
		return left + " -> " + right
	}
}

// FormatFileIoParamLine renders one file I/O parameter with the data-flow
// arrow implied by its copy word; copy words other than IN and OUT render as
// a plain assignment.
func FormatFileIoParamLine(copyWord, left, right string) string {
	switch strings.ToUpper(strings.TrimSpace(copyWord)) {
	case "OUT":
		return left + " <- " + right
	case "IN":
		return left + " -> " + right
	default:
		return left + " = " + right
	}
}
