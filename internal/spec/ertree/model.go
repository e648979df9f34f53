// File path: internal/spec/ertree/model.go

// Package ertree models decoded event rules as a closed set of typed nodes.
// The decoded XML arrives as a flat stream of sibling marker elements
// (conditional and loop openers and closers interleaved with statements);
// Parse reconstructs the nesting so the renderer can walk an ordinary tree.
package ertree

// Node is one typed element of the event rules tree. The set of
// implementations is closed; renderers switch exhaustively over it.
type Node interface {
	node()
}

// IfBlock is a conditional with its reconstructed branches. Condition holds
// the human-readable description carried by the spec itself.
type IfBlock struct {
	Condition string
	Then      []Node
	Else      []Node
}

// WhileBlock is a loop with its reconstructed body.
type WhileBlock struct {
	Condition string
	Body      []Node
}

// VariableDecl declares an event-level variable. It renders no line of its
// own; later references label themselves "{Name} [{Alias}]".
type VariableDecl struct {
	ID       string
	Name     string
	Alias    string
	DataType string
	Size     int
}

// BusinessFunctionCall invokes a business function through its data
// structure template.
type BusinessFunctionCall struct {
	Function string
	Template string
	Params   []CallParam
}

// CallParam is one parameter of a business function call, in declared order.
type CallParam struct {
	CopyWord string
	ItemID   string
	Operand  Operand
}

// FileIO is a database operation against an ERP table. IndexID is zero when
// the spec names no index.
type FileIO struct {
	Table     string
	Operation string
	IndexID   int
	Params    []FileIOParam
}

// FileIOParam is one parameter of a file I/O operation: the data item being
// read or written plus the operand pair it moves between.
type FileIOParam struct {
	CopyWord string
	DataItem string
	From     Operand
	To       Operand
}

func (*IfBlock) node()              {}
func (*WhileBlock) node()           {}
func (*VariableDecl) node()         {}
func (*BusinessFunctionCall) node() {}
func (*FileIO) node()               {}

// Operand is a value reference inside a parameter. The set of
// implementations is closed.
type Operand interface {
	operand()
}

// MemberRef references an item of the surrounding data structure template.
type MemberRef struct {
	ItemID string
}

// VariableRef references an event-level variable declaration.
type VariableRef struct {
	VarID string
}

// Literal is an inline value. StringValue and NumericValue are set when the
// spec wrapped the value in an explicit typed child; Text carries the raw
// element text otherwise.
type Literal struct {
	StringValue  *string
	NumericValue *string
	Text         string
}

// ConstantRef references a named constant.
type ConstantRef struct {
	Name string
}

// SystemValueRef references a system variable.
type SystemValueRef struct {
	Name string
}

func (*MemberRef) operand()      {}
func (*VariableRef) operand()    {}
func (*Literal) operand()        {}
func (*ConstantRef) operand()    {}
func (*SystemValueRef) operand() {}

// Tree is the decoded event rules document: the reconstructed node sequence
// plus an index of variable declarations by id. Built once, consumed
// read-only.
type Tree struct {
	SpecKey   string
	Nodes     []Node
	Variables map[string]*VariableDecl
}

// Tables returns the distinct table names referenced by file I/O nodes, in
// first-reference order.
func (t *Tree) Tables() []string {
	var out []string
	seen := make(map[string]struct{})
	t.walk(func(n Node) {
		if io, ok := n.(*FileIO); ok && io.Table != "" {
			if _, dup := seen[io.Table]; !dup {
				seen[io.Table] = struct{}{}
				out = append(out, io.Table)
			}
		}
	})
	return out
}

// DataItems returns the distinct data dictionary items referenced by file
// I/O parameters, in first-reference order.
func (t *Tree) DataItems() []string {
	var out []string
	seen := make(map[string]struct{})
	t.walk(func(n Node) {
		io, ok := n.(*FileIO)
		if !ok {
			return
		}
		for _, p := range io.Params {
			if p.DataItem == "" {
				continue
			}
			if _, dup := seen[p.DataItem]; !dup {
				seen[p.DataItem] = struct{}{}
				out = append(out, p.DataItem)
			}
		}
	})
	return out
}

// CallTemplates returns the distinct template names referenced by business
// function calls, in first-reference order.
func (t *Tree) CallTemplates() []string {
	var out []string
	seen := make(map[string]struct{})
	t.walk(func(n Node) {
		if call, ok := n.(*BusinessFunctionCall); ok && call.Template != "" {
			if _, dup := seen[call.Template]; !dup {
				seen[call.Template] = struct{}{}
				out = append(out, call.Template)
			}
		}
	})
	return out
}

func (t *Tree) walk(fn func(Node)) {
	if t == nil {
		return
	}
	walkNodes(t.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		switch v := n.(type) {
		case *IfBlock:
			walkNodes(v.Then, fn)
			walkNodes(v.Else, fn)
		case *WhileBlock:
			walkNodes(v.Body, fn)
		}
	}
}
