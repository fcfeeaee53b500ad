package lang

import (
	"iter"
	"strings"
)

// Node is implemented by every syntax tree variant. Each variant supplies
// both backends: evaluation against an [Environment] and generation of
// equivalent target text.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() Position

	// Evaluate executes the node. Expressions yield their value in a normal
	// result; a return statement yields a [FlowReturn] result.
	Evaluate(ev *Evaluator, env *Environment) (Result, error)

	// Generate returns the target text of the node. Statements return whole
	// lines indented for the current level, expressions return inline text.
	Generate(g *Generator) (string, error)

	node()
}

// Flow discriminates normal completion from a return signal.
type Flow uint8

const (
	// FlowNormal is ordinary completion.
	FlowNormal Flow = iota
	// FlowReturn is a return signal that unwinds to the nearest call.
	FlowReturn
)

// Result is the outcome of evaluating a node.
type Result struct {
	Flow  Flow
	Value Value
}

func normal(v Value) Result { return Result{Flow: FlowNormal, Value: v} }

// Operator is a binary operator.
type Operator uint8

// Binary operators.
const (
	OpAnd Operator = iota
	OpOr
	OpXor
	OpNand
	OpNor
	OpXnor
	OpEqual
	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpMod
	OpPower
)

var operatorName = [...]string{
	OpAnd:   "and",
	OpOr:    "or",
	OpXor:   "xor",
	OpNand:  "nand",
	OpNor:   "nor",
	OpXnor:  "xnor",
	OpEqual: "=",
	OpPlus:  "+",
	OpMinus: "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpPower: "**",
}

func (op Operator) String() string { return operatorName[op] }

// connective reports whether op is a boolean connective.
func (op Operator) connective() bool { return op <= OpXnor }

var binaryOperator = map[Kind]Operator{
	AND:     OpAnd,
	OR:      OpOr,
	XOR:     OpXor,
	NAND:    OpNand,
	NOR:     OpNor,
	XNOR:    OpXnor,
	EQUAL:   OpEqual,
	PLUS:    OpPlus,
	MINUS:   OpMinus,
	MUL:     OpMul,
	DIV:     OpDiv,
	MODULUS: OpMod,
	POWER:   OpPower,
}

type (
	// Program is the root of a parsed source.
	Program struct {
		Statements []Node
	}

	// Block is an indented statement list.
	Block struct {
		Statements []Node
		At         Position
	}

	// Blank is an empty line.
	Blank struct {
		At Position
	}

	// If runs Body when Cond is truthy.
	If struct {
		Cond Node
		Body *Block
		At   Position
	}

	// IfElse runs Else when the condition of If is falsy.
	IfElse struct {
		If   *If
		Else *Block
	}

	// Def defines a function.
	Def struct {
		Name   string
		Params []string
		Body   *Block
		At     Position
	}

	// Set assigns the value of Expr to Name.
	Set struct {
		Name string
		Expr Node
		At   Position
	}

	// Loop iterates Var from its current value (or 0) toward Stop by Step.
	Loop struct {
		Var  string
		Step Node
		Stop Node
		Body *Block
		At   Position
	}

	// Return signals the end of the enclosing function. Expr may be nil.
	Return struct {
		Expr Node
		At   Position
	}

	// ExpressionStatement evaluates Expr for its effects.
	ExpressionStatement struct {
		Expr Node
	}

	// Call is a name followed by zero or more arguments. It invokes the
	// name when bound to a callable and reads it as a variable otherwise.
	Call struct {
		Name string
		Args []Node
		At   Position
	}

	// VariableReference reads a name without invoking it.
	VariableReference struct {
		Name string
		At   Position
	}

	// NumberLiteral is a decimal number.
	NumberLiteral struct {
		Text  string
		Value float64
		At    Position
	}

	// StringLiteral holds the undecoded text between the quotes.
	StringLiteral struct {
		Raw string
		At  Position
	}

	// BoolLiteral is true or false.
	BoolLiteral struct {
		Value bool
		At    Position
	}

	// Group is a parenthesized expression.
	Group struct {
		Expr Node
		At   Position
	}

	// Not negates the truthiness of Expr.
	Not struct {
		Expr Node
		At   Position
	}

	// Binary applies Op to Left and Right.
	Binary struct {
		Op    Operator
		Left  Node
		Right Node
		At    Position
	}
)

func (*Program) Pos() Position               { return Position{Line: 1, Column: 1} }
func (n *Block) Pos() Position               { return n.At }
func (n *Blank) Pos() Position               { return n.At }
func (n *If) Pos() Position                  { return n.At }
func (n *IfElse) Pos() Position              { return n.If.At }
func (n *Def) Pos() Position                 { return n.At }
func (n *Set) Pos() Position                 { return n.At }
func (n *Loop) Pos() Position                { return n.At }
func (n *Return) Pos() Position              { return n.At }
func (n *ExpressionStatement) Pos() Position { return n.Expr.Pos() }
func (n *Call) Pos() Position                { return n.At }
func (n *VariableReference) Pos() Position   { return n.At }
func (n *NumberLiteral) Pos() Position       { return n.At }
func (n *StringLiteral) Pos() Position       { return n.At }
func (n *BoolLiteral) Pos() Position         { return n.At }
func (n *Group) Pos() Position               { return n.At }
func (n *Not) Pos() Position                 { return n.At }
func (n *Binary) Pos() Position              { return n.At }

func (*Program) node()             {}
func (*Block) node()               {}
func (*Blank) node()               {}
func (*If) node()                  {}
func (*IfElse) node()              {}
func (*Def) node()                 {}
func (*Set) node()                 {}
func (*Loop) node()                {}
func (*Return) node()              {}
func (*ExpressionStatement) node() {}
func (*Call) node()                {}
func (*VariableReference) node()   {}
func (*NumberLiteral) node()       {}
func (*StringLiteral) node()       {}
func (*BoolLiteral) node()         {}
func (*Group) node()               {}
func (*Not) node()                 {}
func (*Binary) node()              {}

// hoisted yields the definitions of stmts in source order followed by the
// remaining statements in source order.
func hoisted(stmts []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, s := range stmts {
			if _, ok := s.(*Def); ok && !yield(s) {
				return
			}
		}

		for _, s := range stmts {
			if _, ok := s.(*Def); !ok && !yield(s) {
				return
			}
		}
	}
}

// String returns a compact parenthesized rendering of the program.
func (p *Program) String() string {
	var b strings.Builder

	for i, s := range p.Statements {
		if i > 0 {
			b.WriteByte(' ')
		}

		dump(&b, s)
	}

	return b.String()
}

func dump(b *strings.Builder, n Node) {
	list := func(head string, parts ...func()) {
		b.WriteString("(" + head)

		for _, part := range parts {
			b.WriteByte(' ')
			part()
		}

		b.WriteByte(')')
	}
	sub := func(n Node) func() { return func() { dump(b, n) } }
	text := func(s string) func() { return func() { b.WriteString(s) } }

	switch n := n.(type) {
	case *Block:
		parts := make([]func(), len(n.Statements))
		for i, s := range n.Statements {
			parts[i] = sub(s)
		}

		list("block", parts...)
	case *Blank:
		b.WriteString("nl")
	case *If:
		list("iff", sub(n.Cond), sub(n.Body))
	case *IfElse:
		list("iff", sub(n.If.Cond), sub(n.If.Body), sub(n.Else))
	case *Def:
		list("def", text(n.Name), text("["+strings.Join(n.Params, " ")+"]"), sub(n.Body))
	case *Set:
		list("set", text(n.Name), sub(n.Expr))
	case *Loop:
		list("lop", text(n.Var), sub(n.Step), sub(n.Stop), sub(n.Body))
	case *Return:
		if n.Expr == nil {
			list("ret")
		} else {
			list("ret", sub(n.Expr))
		}
	case *ExpressionStatement:
		dump(b, n.Expr)
	case *Call:
		parts := make([]func(), len(n.Args))
		for i, a := range n.Args {
			parts[i] = sub(a)
		}

		list("call "+n.Name, parts...)
	case *VariableReference:
		b.WriteString(n.Name)
	case *NumberLiteral:
		b.WriteString(n.Text)
	case *StringLiteral:
		b.WriteString(`"` + n.Raw + `"`)
	case *BoolLiteral:
		if n.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case *Group:
		list("group", sub(n.Expr))
	case *Not:
		list("not", sub(n.Expr))
	case *Binary:
		list(n.Op.String(), sub(n.Left), sub(n.Right))
	}
}
