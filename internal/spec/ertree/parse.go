// File path: internal/spec/ertree/parse.go
package ertree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/calhayes/specview/internal/spec/template"
)

// Flat marker and statement element names in the decoded stream.
const (
	elemIf       = "ERIf"
	elemElse     = "ERElse"
	elemEndIf    = "EREndIf"
	elemWhile    = "ERWhile"
	elemEndWhile = "EREndWhile"
	elemVariable = "ERVariable"
	elemBSFN     = "ERBSFNCall"
	elemFileIO   = "ERFileIO"
	elemParam    = "ERParam"
)

// Operand element names.
const (
	elemMember      = "Member"
	elemVarRef      = "Variable"
	elemLiteral     = "Literal"
	elemConstant    = "Constant"
	elemSystemValue = "SystemValue"
	elemString      = "String"
	elemNumeric     = "Numeric"
)

// frame tracks one open block while reconstructing nesting from the flat
// marker stream.
type frame struct {
	ifBlock    *IfBlock
	whileBlock *WhileBlock
	inElse     bool
}

// Parse normalizes and parses an event-rules XML document into a Tree.
// Control flow arrives flat — If/Else/EndIf and While/EndWhile are sibling
// markers — and is rebuilt here with an explicit stack. Stray or unbalanced
// markers are tolerated: a closer with no matching opener is dropped, and
// blocks still open at end of stream are kept as parsed. Unknown elements
// are ignored so that spec fragments this build does not understand never
// abort the whole document.
func Parse(specKey, payload string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(template.NormalizePayload(payload)); err != nil {
		return nil, fmt.Errorf("parse event rules %s: %w", specKey, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse event rules %s: no document element", specKey)
	}

	tree := &Tree{SpecKey: specKey, Variables: make(map[string]*VariableDecl)}
	var stack []*frame

	appendNode := func(n Node) {
		if len(stack) == 0 {
			tree.Nodes = append(tree.Nodes, n)
			return
		}
		top := stack[len(stack)-1]
		switch {
		case top.whileBlock != nil:
			top.whileBlock.Body = append(top.whileBlock.Body, n)
		case top.inElse:
			top.ifBlock.Else = append(top.ifBlock.Else, n)
		default:
			top.ifBlock.Then = append(top.ifBlock.Then, n)
		}
	}

	for _, el := range root.ChildElements() {
		switch el.Tag {
		case elemIf:
			block := &IfBlock{Condition: strings.TrimSpace(el.SelectAttrValue("szDesc", ""))}
			appendNode(block)
			stack = append(stack, &frame{ifBlock: block})
		case elemElse:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].ifBlock != nil {
					stack = stack[:i+1]
					stack[i].inElse = true
					break
				}
			}
		case elemEndIf:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.ifBlock != nil {
					break
				}
			}
		case elemWhile:
			block := &WhileBlock{Condition: strings.TrimSpace(el.SelectAttrValue("szDesc", ""))}
			appendNode(block)
			stack = append(stack, &frame{whileBlock: block})
		case elemEndWhile:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.whileBlock != nil {
					break
				}
			}
		case elemVariable:
			decl := parseVariable(el)
			appendNode(decl)
			if decl.ID != "" {
				if _, dup := tree.Variables[decl.ID]; !dup {
					tree.Variables[decl.ID] = decl
				}
			}
		case elemBSFN:
			appendNode(parseCall(el))
		case elemFileIO:
			appendNode(parseFileIO(el))
		}
	}
	return tree, nil
}

func parseVariable(el *etree.Element) *VariableDecl {
	size, _ := strconv.Atoi(strings.TrimSpace(el.SelectAttrValue("nSize", "")))
	return &VariableDecl{
		ID:       strings.TrimSpace(el.SelectAttrValue("idVar", "")),
		Name:     strings.TrimSpace(el.SelectAttrValue("szName", "")),
		Alias:    strings.TrimSpace(el.SelectAttrValue("szDict", "")),
		DataType: strings.TrimSpace(el.SelectAttrValue("szType", "")),
		Size:     size,
	}
}

func parseCall(el *etree.Element) *BusinessFunctionCall {
	call := &BusinessFunctionCall{
		Function: strings.TrimSpace(el.SelectAttrValue("szFunction", "")),
		Template: strings.TrimSpace(el.SelectAttrValue("szTemplate", "")),
	}
	for _, p := range el.ChildElements() {
		if p.Tag != elemParam {
			continue
		}
		call.Params = append(call.Params, CallParam{
			CopyWord: strings.ToUpper(strings.TrimSpace(p.SelectAttrValue("szCopyWord", ""))),
			ItemID:   strings.TrimSpace(p.SelectAttrValue("idItem", "")),
			Operand:  firstOperand(p),
		})
	}
	return call
}

func parseFileIO(el *etree.Element) *FileIO {
	indexID, _ := strconv.Atoi(strings.TrimSpace(el.SelectAttrValue("idIndex", "")))
	io := &FileIO{
		Table:     strings.TrimSpace(el.SelectAttrValue("szTable", "")),
		Operation: el.SelectAttrValue("szOp", ""),
		IndexID:   indexID,
	}
	for _, p := range el.ChildElements() {
		if p.Tag != elemParam {
			continue
		}
		param := FileIOParam{
			CopyWord: strings.ToUpper(strings.TrimSpace(p.SelectAttrValue("szCopyWord", ""))),
			DataItem: strings.TrimSpace(p.SelectAttrValue("szDict", "")),
		}
		if from := p.SelectElement("From"); from != nil {
			param.From = firstOperand(from)
		}
		if to := p.SelectElement("To"); to != nil {
			param.To = firstOperand(to)
		}
		// Older decoded streams put the operand directly under the param.
		if param.From == nil {
			param.From = firstOperand(p)
		}
		io.Params = append(io.Params, param)
	}
	return io
}

// firstOperand returns the first recognized operand child of el, or nil.
func firstOperand(el *etree.Element) Operand {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case elemMember:
			return &MemberRef{ItemID: strings.TrimSpace(c.SelectAttrValue("idItem", ""))}
		case elemVarRef:
			return &VariableRef{VarID: strings.TrimSpace(c.SelectAttrValue("idVar", ""))}
		case elemLiteral:
			return parseLiteral(c)
		case elemConstant:
			return &ConstantRef{Name: strings.TrimSpace(c.SelectAttrValue("szName", ""))}
		case elemSystemValue:
			return &SystemValueRef{Name: strings.TrimSpace(c.SelectAttrValue("szName", ""))}
		}
	}
	return nil
}

func parseLiteral(el *etree.Element) *Literal {
	lit := &Literal{Text: el.Text()}
	if s := el.SelectElement(elemString); s != nil {
		v := s.Text()
		lit.StringValue = &v
	}
	if n := el.SelectElement(elemNumeric); n != nil {
		v := n.Text()
		lit.NumericValue = &v
	}
	return lit
}
