package lang

import (
	"context"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/bthn/log"
)

// Generate returns Python 3 source equivalent to prog. Callables bound in
// seed are treated as builtins provided by the host; other bound values are
// emitted as assignments ahead of the program. seed may be nil.
func Generate(ctx context.Context, prog *Program, seed *Environment, opts ...Option) (string, error) {
	o := makeOptions(opts...)

	g := &Generator{
		ctx:    ctx,
		logger: o.logger,
		unit:   o.indent,
		seed:   seed,
	}

	if seed == nil {
		g.seed = NewEnvironment()
	}

	out, err := prog.Generate(g)
	if err != nil {
		g.logger.DebugContext(ctx, "generate failed", slog.Any("error", err))

		return "", err
	}

	g.logger.TraceContext(ctx, "generate complete",
		slog.Int("byte_count", len(out)),
		slog.Bool("range_helper", g.ranged))

	return out, nil
}

type symbol uint8

const (
	symUnbound symbol = iota
	symVariable
	symFunction
	symBuiltin
)

// scope is the generation context of one block: what each visible name is
// known to be, and the forward declarations to emit at the top of the
// block.
type scope struct {
	symbols map[string]symbol
	decls   []string
}

// declare registers name as a variable, queuing a forward declaration if
// the name was not known.
func (s *scope) declare(name string, sym symbol) {
	if _, known := s.symbols[name]; !known {
		s.decls = append(s.decls, name)
	}

	s.symbols[name] = sym
}

// Generator holds the state of one code generation pass.
type Generator struct {
	ctx    context.Context
	logger log.Logger
	unit   string
	level  int
	scope  *scope
	seed   *Environment
	ranged bool
}

func (g *Generator) line(text string) string {
	return strings.Repeat(g.unit, g.level) + text
}

// reference returns the symbol of name, registering an unknown name as
// unbound in the innermost block.
func (g *Generator) reference(name string) symbol {
	sym, ok := g.scope.symbols[name]
	if !ok {
		g.scope.declare(name, symUnbound)
		g.logger.TraceContext(g.ctx, "forward declaration", slog.String("name", name))
	}

	return sym
}

// statements generates stmts as one block with the given symbol table.
func (g *Generator) statements(stmts []Node, symbols map[string]symbol) (string, error) {
	if err := g.ctx.Err(); err != nil {
		return "", ErrInterrupted.Wrap(context.Cause(g.ctx))
	}

	outer := g.scope
	g.scope = &scope{symbols: symbols}

	defer func() { g.scope = outer }()

	for _, s := range stmts {
		if d, ok := s.(*Def); ok {
			g.scope.symbols[d.Name] = symFunction
		}
	}

	defined(stmts, func(name string) {
		if sym, ok := g.scope.symbols[name]; !ok || sym == symUnbound {
			g.scope.declare(name, symFunction)
		}
	})

	assigned(stmts, func(name string) {
		if sym, ok := g.scope.symbols[name]; !ok || sym == symUnbound {
			g.scope.declare(name, symVariable)
		}
	})

	body := make([]string, 0, len(stmts))

	for stmt := range hoisted(stmts) {
		text, err := stmt.Generate(g)
		if err != nil {
			return "", err
		}

		if text != "" {
			body = append(body, text)
		}
	}

	lines := make([]string, 0, len(g.scope.decls)+len(body))
	for _, name := range g.scope.decls {
		lines = append(lines, g.line(pyName(name)+" = None"))
	}

	lines = append(lines, body...)

	if len(lines) == 0 && g.level > 0 {
		lines = append(lines, g.line("pass"))
	}

	return strings.Join(lines, "\n"), nil
}

func (g *Generator) nested(b *Block, symbols map[string]symbol) (string, error) {
	g.level++
	defer func() { g.level-- }()

	return g.statements(b.Statements, symbols)
}

// assigned calls fn with each name that stmts assign, including those in
// nested conditional and loop bodies. Function bodies are not entered.
func assigned(stmts []Node, fn func(string)) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Set:
			fn(s.Name)
		case *Loop:
			fn(s.Var)
			assigned(s.Body.Statements, fn)
		case *If:
			assigned(s.Body.Statements, fn)
		case *IfElse:
			assigned(s.If.Body.Statements, fn)
			assigned(s.Else.Statements, fn)
		}
	}
}

// defined calls fn with the name of each function defined in the nested
// conditional and loop bodies of stmts. Python binds these in the
// enclosing function or module, as the interpreter binds them in the
// enclosing environment.
func defined(stmts []Node, fn func(string)) {
	var walk func(stmts []Node, top bool)

	walk = func(stmts []Node, top bool) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *Def:
				if !top {
					fn(s.Name)
				}
			case *Loop:
				walk(s.Body.Statements, false)
			case *If:
				walk(s.Body.Statements, false)
			case *IfElse:
				walk(s.If.Body.Statements, false)
				walk(s.Else.Statements, false)
			}
		}
	}

	walk(stmts, true)
}

const (
	rangeHelper = "_lop_range"
	bodyHelper  = "_body"
)

func (g *Generator) prelude() []string {
	u := g.unit

	return []string{
		"def " + rangeHelper + "(start, stop, step):",
		u + "out = []",
		u + "while (step > 0 and start < stop) or (step < 0 and start > stop):",
		u + u + "out.append(start)",
		u + u + "start = start + step",
		u + "return out",
	}
}

func (n *Program) Generate(g *Generator) (string, error) {
	symbols := make(map[string]symbol, g.seed.Len())

	var seeded []string

	for name, v := range g.seed.All() {
		if v.Type() == TypeCallable {
			symbols[name] = symBuiltin

			continue
		}

		symbols[name] = symVariable
		seeded = append(seeded, pyName(name)+" = "+pyLiteral(v))
	}

	body, err := g.statements(n.Statements, symbols)
	if err != nil {
		return "", err
	}

	var lines []string
	if g.ranged {
		lines = append(lines, g.prelude()...)
	}

	lines = append(lines, seeded...)

	if body != "" {
		lines = append(lines, body)
	}

	if len(lines) == 0 {
		return "", nil
	}

	return strings.Join(lines, "\n") + "\n", nil
}

func (n *Block) Generate(g *Generator) (string, error) {
	return g.nested(n, maps.Clone(g.scope.symbols))
}

func (*Blank) Generate(*Generator) (string, error) { return "", nil }

func (n *If) Generate(g *Generator) (string, error) {
	cond, err := n.Cond.Generate(g)
	if err != nil {
		return "", err
	}

	head := g.line("if " + cond + ":")

	body, err := n.Body.Generate(g)
	if err != nil {
		return "", err
	}

	return head + "\n" + body, nil
}

func (n *IfElse) Generate(g *Generator) (string, error) {
	head, err := n.If.Generate(g)
	if err != nil {
		return "", err
	}

	alt, err := n.Else.Generate(g)
	if err != nil {
		return "", err
	}

	return head + "\n" + g.line("else:") + "\n" + alt, nil
}

// Generate emits a Python function. A call starts from a copy of the
// defining scope, but Python makes every name the body binds local and
// unbound on entry. When the body binds names the defining scope can see,
// the body moves into an inner function that receives their values at
// call time.
func (n *Def) Generate(g *Generator) (string, error) {
	outer := g.scope.symbols
	symbols := maps.Clone(outer)

	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = pyName(p)
	}

	var captured []string

	seen := make(map[string]struct{})
	capture := func(name string) {
		if _, dup := seen[name]; dup || slices.Contains(n.Params, name) {
			return
		}

		seen[name] = struct{}{}

		sym, visible := outer[name]
		if !visible {
			return
		}

		captured = append(captured, pyName(name))

		if sym == symUnbound {
			symbols[name] = symVariable
		}
	}

	assigned(n.Body.Statements, capture)
	defined(n.Body.Statements, capture)

	for _, p := range n.Params {
		symbols[p] = symVariable
	}

	head := g.line("def " + pyName(n.Name) + "(" + strings.Join(params, ", ") + "):")

	if len(captured) == 0 {
		body, err := g.nested(n.Body, symbols)
		if err != nil {
			return "", err
		}

		return head + "\n" + body, nil
	}

	g.logger.TraceContext(g.ctx, "scope captured",
		slog.String("name", n.Name),
		slog.Int("capture_count", len(captured)))

	args := strings.Join(append(params, captured...), ", ")

	g.level++
	defer func() { g.level-- }()

	inner := g.line("def " + bodyHelper + "(" + args + "):")

	body, err := g.nested(n.Body, symbols)
	if err != nil {
		return "", err
	}

	call := g.line("return " + bodyHelper + "(" + args + ")")

	return head + "\n" + inner + "\n" + body + "\n" + call, nil
}

func (n *Set) Generate(g *Generator) (string, error) {
	expr, err := n.Expr.Generate(g)
	if err != nil {
		return "", err
	}

	return g.line(pyName(n.Name) + " = " + expr), nil
}

func (n *Loop) Generate(g *Generator) (string, error) {
	step, err := n.Step.Generate(g)
	if err != nil {
		return "", err
	}

	stop, err := n.Stop.Generate(g)
	if err != nil {
		return "", err
	}

	g.ranged = true
	v := pyName(n.Var)
	head := g.line("for " + v + " in " + rangeHelper +
		"((0 if " + v + " is None else " + v + "), " + stop + ", " + step + "):")

	body, err := n.Body.Generate(g)
	if err != nil {
		return "", err
	}

	return head + "\n" + body, nil
}

func (n *Return) Generate(g *Generator) (string, error) {
	if n.Expr == nil {
		return g.line("return"), nil
	}

	expr, err := n.Expr.Generate(g)
	if err != nil {
		return "", err
	}

	return g.line("return " + expr), nil
}

func (n *ExpressionStatement) Generate(g *Generator) (string, error) {
	expr, err := n.Expr.Generate(g)
	if err != nil {
		return "", err
	}

	return g.line(expr), nil
}

func (n *Call) Generate(g *Generator) (string, error) {
	sym := g.reference(n.Name)
	name := pyName(n.Name)

	if len(n.Args) == 0 && sym != symFunction && sym != symBuiltin {
		return name, nil
	}

	args := make([]string, len(n.Args))

	for i, a := range n.Args {
		text, err := a.Generate(g)
		if err != nil {
			return "", err
		}

		args[i] = text
	}

	return name + "(" + strings.Join(args, ", ") + ")", nil
}

func (n *VariableReference) Generate(g *Generator) (string, error) {
	g.reference(n.Name)

	return pyName(n.Name), nil
}

func (n *NumberLiteral) Generate(*Generator) (string, error) { return n.Text, nil }

func (n *StringLiteral) Generate(*Generator) (string, error) {
	return pyQuote(Unescape(n.Raw)), nil
}

func (n *BoolLiteral) Generate(*Generator) (string, error) {
	if n.Value {
		return "True", nil
	}

	return "False", nil
}

func (n *Group) Generate(g *Generator) (string, error) {
	expr, err := n.Expr.Generate(g)
	if err != nil {
		return "", err
	}

	if delimited(n.Expr) {
		return expr, nil
	}

	return "(" + expr + ")", nil
}

// delimited reports whether the generated form of n is already enclosed in
// parentheses.
func delimited(n Node) bool {
	switch n := n.(type) {
	case *Group, *Not:
		return true
	case *Binary:
		return n.Op.connective()
	}

	return false
}

func (n *Not) Generate(g *Generator) (string, error) {
	expr, err := n.Expr.Generate(g)
	if err != nil {
		return "", err
	}

	return "(not " + expr + ")", nil
}

func (n *Binary) Generate(g *Generator) (string, error) {
	a, err := n.Left.Generate(g)
	if err != nil {
		return "", err
	}

	b, err := n.Right.Generate(g)
	if err != nil {
		return "", err
	}

	switch n.Op {
	case OpAnd:
		return "(True if " + a + " and " + b + " else False)", nil
	case OpOr:
		return "(True if " + a + " or " + b + " else False)", nil
	case OpXor:
		return "((not " + a + ") != (not " + b + "))", nil
	case OpNand:
		return "(not (" + a + " and " + b + "))", nil
	case OpNor:
		return "(not (" + a + " or " + b + "))", nil
	case OpXnor:
		return "((not " + a + ") == (not " + b + "))", nil
	case OpEqual:
		return a + " == " + b, nil
	default:
		return a + " " + n.Op.String() + " " + b, nil
	}
}

// pyReserved holds the Python keywords and the names generated code relies
// on.
var pyReserved = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {}, "finally": {},
	"for": {}, "from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {},
	"raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
	"bool": {}, "float": {}, rangeHelper: {}, bodyHelper: {},
}

func pyName(name string) string {
	if _, ok := pyReserved[name]; ok {
		return name + "_"
	}

	return name
}

// SourceName maps a top-level name found in the globals of generated
// source back to the name it was generated from. It reports false for
// names that only the generated support code introduces.
func SourceName(name string) (string, bool) {
	if name == rangeHelper || name == bodyHelper || strings.HasPrefix(name, "__") {
		return "", false
	}

	if base, ok := strings.CutSuffix(name, "_"); ok {
		if _, reserved := pyReserved[base]; reserved {
			return base, true
		}
	}

	return name, true
}

// pyQuote returns s as a double-quoted Python string literal.
func pyQuote(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				b.WriteString(strconv.FormatInt(int64(r)>>4, 16))
				b.WriteString(strconv.FormatInt(int64(r)&0xf, 16))
			} else {
				b.WriteRune(r)
			}
		}
	}

	b.WriteByte('"')

	return b.String()
}

// pyLiteral renders a data value as a Python expression.
func pyLiteral(v Value) string {
	switch v.Type() {
	case TypeNumber:
		f, _ := v.AsNumber()

		switch {
		case math.IsNaN(f):
			return `float("nan")`
		case math.IsInf(f, 1):
			return `float("inf")`
		case math.IsInf(f, -1):
			return `float("-inf")`
		}

		return FormatNumber(f)
	case TypeString:
		s, _ := v.AsString()

		return pyQuote(s)
	case TypeBool:
		if b, _ := v.AsBool(); b {
			return "True"
		}

		return "False"
	default:
		return "None"
	}
}
