// File path: internal/spec/template/template.go

// Package template models ERP data structure templates: named, ordered lists
// of parameter slots used by business functions and forms. Templates are
// parsed once from their XML spec document and are immutable afterwards.
package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ValidationError reports direct misuse of a parse entry point, such as a
// blank template name or payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "template: " + e.Reason }

// Item is one parameter slot in a data structure template.
type Item struct {
	ID         string `json:"id"`
	DisplaySeq int    `json:"display_seq"`
	CopyWord   string `json:"copy_word"`
	Alias      string `json:"alias"`
	FieldName  string `json:"field_name"`
}

// DisplayName renders the item the way parameter lines reference it.
func (i Item) DisplayName() string {
	return i.FieldName + " [" + i.Alias + "]"
}

// Template is an immutable, parsed data structure template. Item ids are
// unique; the first occurrence wins when the source declares duplicates.
type Template struct {
	Name        string
	Description string

	items map[string]Item
	order []string
}

// Attribute names probed on template item elements. An element missing any
// of the five values is not a template item and is skipped.
const (
	attrItemID   = "idItem"
	attrSeq      = "nSeq"
	attrCopyWord = "szCopyWord"
	attrAlias    = "szDict"
	attrField    = "szField"
)

// descriptionAttrs is the fixed candidate order for the optional template
// description; the first non-blank value wins.
var descriptionAttrs = []string{"szDescription", "Description", "szDesc", "desc"}

// Parse builds a Template from a spec XML payload. It fails with a
// ValidationError when name or payload is blank, and wraps parser errors for
// payloads that are not XML at all. Items missing required values are
// silently skipped rather than failing the whole template.
func Parse(name, payload string) (*Template, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, &ValidationError{Reason: "template name required"}
	}
	if strings.TrimSpace(payload) == "" {
		return nil, &ValidationError{Reason: "template payload required"}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(NormalizePayload(payload)); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", trimmedName, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse template %s: no document element", trimmedName)
	}

	tmpl := &Template{
		Name:        trimmedName,
		Description: findDescription(root),
		items:       make(map[string]Item),
	}

	// The item container is the first nested element; item elements can sit
	// at any depth below it.
	children := root.ChildElements()
	if len(children) == 0 {
		return tmpl, nil
	}
	scanItems(children[0], tmpl)
	return tmpl, nil
}

func findDescription(root *etree.Element) string {
	candidates := []*etree.Element{root}
	if children := root.ChildElements(); len(children) > 0 {
		candidates = append(candidates, children[0])
	}
	for _, el := range candidates {
		for _, attr := range descriptionAttrs {
			if v := strings.TrimSpace(el.SelectAttrValue(attr, "")); v != "" {
				return v
			}
		}
	}
	return ""
}

func scanItems(container *etree.Element, tmpl *Template) {
	for _, el := range container.ChildElements() {
		if item, ok := itemFromElement(el); ok {
			if _, exists := tmpl.items[item.ID]; !exists {
				tmpl.items[item.ID] = item
				tmpl.order = append(tmpl.order, item.ID)
			}
		}
		scanItems(el, tmpl)
	}
}

func itemFromElement(el *etree.Element) (Item, bool) {
	id := strings.TrimSpace(el.SelectAttrValue(attrItemID, ""))
	seqRaw := strings.TrimSpace(el.SelectAttrValue(attrSeq, ""))
	copyWord := strings.TrimSpace(el.SelectAttrValue(attrCopyWord, ""))
	alias := strings.TrimSpace(el.SelectAttrValue(attrAlias, ""))
	field := strings.TrimSpace(el.SelectAttrValue(attrField, ""))
	if id == "" || seqRaw == "" || copyWord == "" || alias == "" || field == "" {
		return Item{}, false
	}
	seq, err := strconv.Atoi(seqRaw)
	if err != nil {
		return Item{}, false
	}
	return Item{
		ID:         id,
		DisplaySeq: seq,
		CopyWord:   strings.ToUpper(copyWord),
		Alias:      alias,
		FieldName:  field,
	}, true
}

// TryGetItem looks up an item by id. Total: never panics, returns ok=false
// for blank or unknown ids.
func (t *Template) TryGetItem(id string) (Item, bool) {
	if t == nil || strings.TrimSpace(id) == "" {
		return Item{}, false
	}
	item, ok := t.items[id]
	return item, ok
}

// Items returns the template's items ordered by display sequence, with the
// source insertion order breaking ties.
func (t *Template) Items() []Item {
	if t == nil {
		return nil
	}
	out := make([]Item, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplaySeq < out[j].DisplaySeq
	})
	return out
}

// Len reports the number of items in the template.
func (t *Template) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// Formatted renders the template as a readable listing for inspection.
func (t *Template) Formatted() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Template ")
	b.WriteString(t.Name)
	if t.Description != "" {
		b.WriteString(" - ")
		b.WriteString(t.Description)
	}
	for _, item := range t.Items() {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%4d  %-5s %s", item.DisplaySeq, item.CopyWord, item.DisplayName())
	}
	return b.String()
}
