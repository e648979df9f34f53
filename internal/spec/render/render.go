// File path: internal/spec/render/render.go

// Package render turns a decoded event rules tree into deterministic,
// indented pseudocode. Rendering is pure: every cross-reference it needs is
// resolved beforehand and handed in through Lookups, and a reference that
// did not resolve degrades to the best available literal text instead of
// failing the render.
package render

import (
	"fmt"
	"strings"

	"github.com/calhayes/specview/internal/spec/ertree"
	"github.com/calhayes/specview/internal/spec/template"
)

// Lookups carries the pre-resolved cross-reference data a render consumes.
// Missing entries are legal everywhere; each renders its degraded fallback.
type Lookups struct {
	// EventTemplate is the data structure template of the event itself,
	// used to resolve member operands outside business function calls.
	EventTemplate *template.Template
	// Template resolves the data structure template referenced by a
	// business function call.
	Template func(name string) (*template.Template, bool)
	// DictTitles maps data items to their dictionary title.
	DictTitles map[string]string
	// TableIndexes maps table name to index id to index name.
	TableIndexes map[string]map[int]string
	// EngineNames maps a call's template name to its resolved business
	// function engine name.
	EngineNames map[string]string
}

func (lk Lookups) template(name string) (*template.Template, bool) {
	if lk.Template == nil {
		return nil, false
	}
	return lk.Template(name)
}

// Render walks the tree and emits the readable event rules text.
func Render(tree *ertree.Tree, lk Lookups) string {
	r := renderer{tree: tree, lk: lk}
	r.nodes(tree.Nodes, 0)
	return strings.Join(r.lines, "\n")
}

type renderer struct {
	tree  *ertree.Tree
	lk    Lookups
	lines []string
}

func (r *renderer) emit(text string, level int) {
	r.lines = append(r.lines, IndentLine(text, level))
}

func (r *renderer) nodes(nodes []ertree.Node, level int) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ertree.IfBlock:
			r.emit(v.Condition, level)
			r.nodes(v.Then, level+1)
			if len(v.Else) > 0 {
				r.emit("Else", level)
				r.nodes(v.Else, level+1)
			}
			r.emit("End If", level)
		case *ertree.WhileBlock:
			r.emit(v.Condition, level)
			r.nodes(v.Body, level+1)
			r.emit("End While", level)
		case *ertree.VariableDecl:
			// Declarations emit nothing; they only label later references.
		case *ertree.BusinessFunctionCall:
			r.businessFunctionCall(v, level)
		case *ertree.FileIO:
			r.fileIO(v, level)
		}
	}
}

func (r *renderer) businessFunctionCall(call *ertree.BusinessFunctionCall, level int) {
	engine := r.lk.EngineNames[call.Template]
	if engine == "" {
		engine = call.Template
	}
	r.emit(fmt.Sprintf("%s(%s.%s)", call.Function, engine, call.Function), level)

	tmpl, _ := r.lk.template(call.Template)
	for _, p := range call.Params {
		left := r.operandLabel(p.Operand, tmpl)
		if item, ok := tmpl.TryGetItem(p.ItemID); ok {
			left = PrefixQualifier("BF", item.DisplayName())
		}
		right := r.operandLabel(p.Operand, tmpl)
		line := FormatBusinessFunctionParamLine(p.CopyWord, left, right)
		r.lines = append(r.lines, IndentLine(PipeIndent(line, 1), level))
	}
}

func (r *renderer) fileIO(io *ertree.FileIO, level int) {
	header := io.Table + "." + FormatFileIoOperation(io.Operation)
	if io.IndexID > 0 {
		if names, ok := r.lk.TableIndexes[io.Table]; ok {
			if _, known := names[io.IndexID]; known {
				header += fmt.Sprintf(" Index %d", io.IndexID)
			}
		}
	}
	r.emit(header, level)

	for _, p := range io.Params {
		left := PrefixQualifier(operandQualifier(p.From), r.operandLabel(p.From, r.lk.EventTemplate))
		right := p.DataItem
		if title := r.lk.DictTitles[p.DataItem]; title != "" {
			right = title + " [" + p.DataItem + "]"
		}
		r.emit(FormatFileIoParamLine(p.CopyWord, left, right), level+1)
	}
}

// operandLabel renders an operand the way parameter lines reference it,
// degrading to raw ids when a cross-reference is unavailable.
func (r *renderer) operandLabel(op ertree.Operand, tmpl *template.Template) string {
	switch v := op.(type) {
	case *ertree.MemberRef:
		if item, ok := tmpl.TryGetItem(v.ItemID); ok {
			return item.DisplayName()
		}
		return v.ItemID
	case *ertree.VariableRef:
		if decl, ok := r.tree.Variables[v.VarID]; ok {
			return decl.Name + " [" + decl.Alias + "]"
		}
		return v.VarID
	case *ertree.Literal:
		return FormatLiteralValue(v)
	case *ertree.ConstantRef:
		return v.Name
	case *ertree.SystemValueRef:
		return v.Name
	default:
		return ""
	}
}

// operandQualifier maps an operand variant to its qualifier token. Plain
// member and database references carry none.
func operandQualifier(op ertree.Operand) string {
	switch op.(type) {
	case *ertree.VariableRef:
		return "VA"
	case *ertree.ConstantRef:
		return "CO"
	case *ertree.SystemValueRef:
		return "SV"
	default:
		return ""
	}
}
