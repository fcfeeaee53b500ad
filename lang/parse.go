package lang

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ardnew/bthn/log"
)

// ParseString parses a program from a string.
func ParseString(ctx context.Context, src string, opts ...Option) (*Program, error) {
	return Parse(ctx, NewLexer(src, opts...), opts...)
}

// Parse parses a program from the tokens produced by lex. It fails on the
// first syntax or indentation error; no partial program is returned.
func Parse(ctx context.Context, lex *Lexer, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	p := &parser{
		lex:    lex,
		args:   true,
		logger: o.logger,
	}

	prog, err := p.parseProgram()
	if err != nil {
		p.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("statement_count", len(prog.Statements)),
		slog.Int("diagnostic_count", len(lex.Diagnostics())))

	return prog, nil
}

// parser holds the parser state. It keeps a single token of lookahead.
type parser struct {
	lex    *Lexer
	cur    Token
	args   bool // call arguments may follow an identifier
	logger log.Logger
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	p.cur = tok

	return nil
}

func (p *parser) expect(kind Kind) (Token, error) {
	if p.cur.Kind != kind {
		return Token{}, p.unexpected(kind.String())
	}

	tok := p.cur

	return tok, p.advance()
}

func (p *parser) unexpected(expected string) error {
	if p.cur.Kind == EOF {
		return ErrUnexpectedEOF.WithPosition(p.cur.Pos).
			With(slog.String("expected", expected))
	}

	return ErrSyntax.WithPosition(p.cur.Pos).
		With(slog.String("found", p.cur.String())).
		With(slog.String("expected", expected))
}

func (p *parser) parseProgram() (*Program, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	prog := &Program{Statements: make([]Node, 0)}

	for p.cur.Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		prog.Statements = append(prog.Statements, stmt)
	}

	return prog, nil
}

func (p *parser) parseStatement() (Node, error) {
	switch p.cur.Kind {
	case NEWLINE:
		n := &Blank{At: p.cur.Pos}

		return n, p.advance()

	case IFF:
		return p.parseIf()

	case DEF:
		return p.parseDef()

	case SET:
		return p.terminated(p.parseSet())

	case LOP:
		return p.parseLoop()

	case RET:
		return p.terminated(p.parseReturn())

	case ELS:
		return nil, ErrSyntax.WithPosition(p.cur.Pos).
			With(slog.String("issue", "els without iff"))

	case INDENT:
		return nil, p.unexpectedIndent()
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return p.terminated(&ExpressionStatement{Expr: expr}, nil)
}

// terminated passes n through if the current token ends the line of a
// simple statement.
func (p *parser) terminated(n Node, err error) (Node, error) {
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case NEWLINE, DEDENT, EOF:
		return n, nil
	case INDENT:
		return nil, p.unexpectedIndent()
	}

	return nil, p.unexpected("end of line")
}

func (p *parser) unexpectedIndent() error {
	return ErrIndentation.WithPosition(p.cur.Pos).
		With(slog.String("issue", "unexpected indent"))
}

// parseBlock parses: INDENT statement+ DEDENT.
func (p *parser) parseBlock() (*Block, error) {
	at := p.cur.Pos

	if _, err := p.expect(INDENT); err != nil {
		return nil, err
	}

	block := &Block{At: at}

	for p.cur.Kind != DEDENT {
		if p.cur.Kind == EOF {
			return nil, p.unexpected(DEDENT.String())
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		block.Statements = append(block.Statements, stmt)
	}

	if len(block.Statements) == 0 {
		return nil, ErrSyntax.WithPosition(at).
			With(slog.String("issue", "empty block"))
	}

	return block, p.advance()
}

// parseIf parses: IFF expr block [ELS block].
func (p *parser) parseIf() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	n := &If{Cond: cond, Body: body, At: at}

	if p.cur.Kind != ELS {
		return n, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	alt, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &IfElse{If: n, Else: alt}, nil
}

// parseDef parses: DEF IDENT IDENT* block.
func (p *parser) parseDef() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	params := make([]string, 0)

	for p.cur.Kind == IDENT {
		params = append(params, p.cur.Text)

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Def{Name: name.Text, Params: params, Body: body, At: at}, nil
}

// parseSet parses: SET IDENT expr.
func (p *parser) parseSet() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Set{Name: name.Text, Expr: expr, At: at}, nil
}

// parseLoop parses: LOP IDENT step stop block. Call arguments are disabled
// in the header so that the two expressions can be told apart.
func (p *parser) parseLoop() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	saved := p.args
	p.args = false

	step, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	stop, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.args = saved

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Loop{Var: name.Text, Step: step, Stop: stop, Body: body, At: at}, nil
}

// parseReturn parses: RET [expr].
func (p *parser) parseReturn() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case NEWLINE, DEDENT, EOF:
		return &Return{At: at}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Return{Expr: expr, At: at}, nil
}

func (p *parser) parseExpr() (Node, error) { return p.parseDisjunction() }

// binaryLevel parses a left-associative chain of the operators in kinds.
func (p *parser) binaryLevel(
	next func() (Node, error),
	kinds ...Kind,
) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.match(kinds...) {
		at := p.cur.Pos
		op := binaryOperator[p.cur.Kind]

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right, At: at}
	}

	return left, nil
}

func (p *parser) match(kinds ...Kind) bool {
	for _, k := range kinds {
		if p.cur.Kind == k {
			return true
		}
	}

	return false
}

func (p *parser) parseDisjunction() (Node, error) {
	return p.binaryLevel(p.parseConjunction, OR, XOR, NOR, XNOR)
}

func (p *parser) parseConjunction() (Node, error) {
	return p.binaryLevel(p.parseNegation, AND, NAND)
}

func (p *parser) parseNegation() (Node, error) {
	if p.cur.Kind != NOT {
		return p.parseEquality()
	}

	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseNegation()
	if err != nil {
		return nil, err
	}

	return &Not{Expr: expr, At: at}, nil
}

// parseEquality parses a single, non-associative equality comparison.
func (p *parser) parseEquality() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != EQUAL {
		return left, nil
	}

	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == EQUAL {
		return nil, ErrSyntax.WithPosition(p.cur.Pos).
			With(slog.String("issue", "chained equality"))
	}

	return &Binary{Op: OpEqual, Left: left, Right: right, At: at}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	return p.binaryLevel(p.parseMultiplicative, PLUS, MINUS)
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.binaryLevel(p.parsePower, MUL, DIV, MODULUS)
}

// parsePower parses a right-associative exponentiation.
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != POWER {
		return base, nil
	}

	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	return &Binary{Op: OpPower, Left: base, Right: exp, At: at}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	if p.cur.Kind != IDENT {
		if !isAtom(p.cur.Kind) {
			return nil, p.unexpected("expression")
		}

		return p.parseAtom()
	}

	call := &Call{Name: p.cur.Text, At: p.cur.Pos}

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.args && isAtom(p.cur.Kind) {
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)
	}

	return call, nil
}

func isAtom(k Kind) bool {
	switch k {
	case NUMBER, STRING, BOOL, IDENT, LPAREN:
		return true
	default:
		return false
	}
}

// parseAtom parses a literal, a bare variable reference or a group.
func (p *parser) parseAtom() (Node, error) {
	tok := p.cur

	var n Node

	switch tok.Kind {
	case NUMBER:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, ErrSyntax.WithPosition(tok.Pos).
				With(slog.String("number", tok.Text)).
				Wrap(err)
		}

		n = &NumberLiteral{Text: tok.Text, Value: f, At: tok.Pos}

	case STRING:
		n = &StringLiteral{Raw: tok.Text[1 : len(tok.Text)-1], At: tok.Pos}

	case BOOL:
		n = &BoolLiteral{Value: tok.Text == "true", At: tok.Pos}

	case IDENT:
		n = &VariableReference{Name: tok.Text, At: tok.Pos}

	case LPAREN:
		return p.parseGroup()

	default:
		return nil, p.unexpected("expression")
	}

	return n, p.advance()
}

// parseGroup parses: LPAREN expr RPAREN. Call arguments are allowed inside
// a group regardless of the enclosing context.
func (p *parser) parseGroup() (Node, error) {
	at := p.cur.Pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	saved := p.args
	p.args = true

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.args = saved

	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	return &Group{Expr: expr, At: at}, nil
}
