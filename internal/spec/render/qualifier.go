// File path: internal/spec/render/qualifier.go
package render

import "strings"

// recognizedQualifiers is the fixed set of operand qualifier tokens that can
// prefix a parameter label: business-function member, event-level variable,
// constant, system variable.
var recognizedQualifiers = map[string]struct{}{
	"BF": {},
	"VA": {},
	"CO": {},
	"SV": {},
}

// SplitQualifier splits a label into its leading qualifier token and the
// remainder. Text without a recognized qualifier comes back unchanged with
// an empty qualifier.
func SplitQualifier(text string) (qualifier, remainder string) {
	if text == "" {
		return "", ""
	}
	idx := strings.IndexByte(text, ' ')
	if idx < 0 {
		return "", text
	}
	head := text[:idx]
	if _, ok := recognizedQualifiers[head]; !ok {
		return "", text
	}
	return head, text[idx+1:]
}

// PrefixQualifier joins a qualifier and a value; an empty qualifier leaves
// the value unchanged.
func PrefixQualifier(qualifier, value string) string {
	if qualifier == "" {
		return value
	}
	return qualifier + " " + value
}

// IndentLine prepends level tab characters to text.
func IndentLine(text string, level int) string {
	if level <= 0 {
		return text
	}
	return strings.Repeat("\t", level) + text
}

// PipeIndent prepends the pipe-gutter prefix used for business function
// parameter lines, one "|   " per level.
func PipeIndent(text string, level int) string {
	if level <= 0 {
		return text
	}
	return strings.Repeat("|   ", level) + text
}
