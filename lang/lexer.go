package lang

import (
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/ardnew/bthn/log"
)

// Lexer converts source text into tokens on demand.
//
// Leading whitespace of each line is measured against a stack of open
// indentation widths, and line breaks are reported as NEWLINE, INDENT or
// one or more DEDENT tokens. The stack starts at [0] and is unwound with
// synthesized DEDENT tokens at end of input.
type Lexer struct {
	src     string
	pos     int
	line    int
	col     int
	indents []int
	pending []Token
	diags   []error
	err     error
	started bool
	done    bool
	logger  log.Logger
}

// NewLexer returns a lexer reading from src.
func NewLexer(src string, opts ...Option) *Lexer {
	o := makeOptions(opts...)

	return &Lexer{
		src:     src,
		line:    1,
		col:     1,
		indents: []int{0},
		logger:  o.logger,
	}
}

// Tokenize returns the lazily produced token sequence of src.
// The sequence ends after the EOF token or the first error.
func Tokenize(src string, opts ...Option) iter.Seq2[Token, error] {
	return NewLexer(src, opts...).All()
}

// All returns an iterator over the remaining tokens. The iterator stops after
// yielding EOF or an error, and it cannot be restarted.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EOF {
				return
			}
		}
	}
}

// Diagnostics returns the non-fatal errors (illegal characters) reported so
// far.
func (l *Lexer) Diagnostics() []error { return slices.Clone(l.diags) }

// Indents returns a copy of the indentation stack.
func (l *Lexer) Indents() []int { return slices.Clone(l.indents) }

// Next returns the next token. Once EOF is returned every further call
// returns EOF. An indentation error is fatal and is returned again by every
// further call.
func (l *Lexer) Next() (Token, error) {
	tok, err := l.next()
	if err == nil {
		l.logger.Trace("token",
			slog.String("kind", tok.Kind.String()),
			slog.String("text", tok.Text),
			slog.Int("line", tok.Pos.Line),
			slog.Int("depth", len(l.indents)-1),
		)
	}

	return tok, err
}

func (l *Lexer) next() (Token, error) {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]

		return tok, nil
	}

	if l.err != nil {
		return Token{Kind: EOF, Pos: l.position()}, l.err
	}

	if l.done {
		return Token{Kind: EOF, Pos: l.position()}, nil
	}

	if !l.started {
		l.started = true

		if w, ok := l.measure(); ok && w > 0 {
			return l.fail(ErrIndentation.WithPosition(l.position()).
				With(slog.String("issue", "unexpected indent")))
		}
	}

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.advance(1)

		case c == '\n':
			return l.lineBreak()

		case isDigit(c):
			return l.number(), nil

		case isIdentStart(c):
			return l.ident(), nil

		case c == '"':
			if tok, ok := l.string(); ok {
				return tok, nil
			}

			l.illegal()

		default:
			if tok, ok := l.operator(); ok {
				return tok, nil
			}

			l.illegal()
		}
	}

	return l.finish(), nil
}

// measure skips whitespace-only lines and returns the width of the leading
// whitespace of the next line that has content. It reports false if the
// input ends first.
func (l *Lexer) measure() (int, bool) {
	for {
		w := 0

		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if c == ' ' || c == '\t' {
				w++
			} else if c != '\r' {
				break
			}

			l.advance(1)
		}

		if l.pos >= len(l.src) {
			return 0, false
		}

		if l.src[l.pos] != '\n' {
			return w, true
		}

		l.advance(1)
	}
}

// lineBreak consumes a line terminator and converts the indentation of the
// following line into a structural token.
func (l *Lexer) lineBreak() (Token, error) {
	at := l.position()
	l.advance(1)

	w, ok := l.measure()
	if !ok {
		return Token{Kind: NEWLINE, Pos: at}, nil
	}

	top := l.indents[len(l.indents)-1]

	switch {
	case w > top:
		l.indents = append(l.indents, w)

		return Token{Kind: INDENT, Pos: l.position()}, nil

	case w == top:
		return Token{Kind: NEWLINE, Pos: at}, nil
	}

	pos := l.position()
	count := 0

	for len(l.indents) > 1 && l.indents[len(l.indents)-1] > w {
		l.indents = l.indents[:len(l.indents)-1]
		count++
	}

	if l.indents[len(l.indents)-1] != w {
		return l.fail(ErrIndentation.WithPosition(pos).With(
			slog.Int("width", w),
			slog.Int("enclosing", l.indents[len(l.indents)-1]),
		))
	}

	for range count - 1 {
		l.pending = append(l.pending, Token{Kind: DEDENT, Pos: pos})
	}

	return Token{Kind: DEDENT, Pos: pos}, nil
}

// finish unwinds the indentation stack at end of input.
func (l *Lexer) finish() Token {
	l.done = true
	pos := l.position()

	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, Token{Kind: DEDENT, Pos: pos})
	}

	if len(l.pending) == 0 {
		return Token{Kind: EOF, Pos: pos}
	}

	l.pending = append(l.pending, Token{Kind: EOF, Pos: pos})
	tok := l.pending[0]
	l.pending = l.pending[1:]

	return tok
}

func (l *Lexer) fail(err *Error) (Token, error) {
	l.err = err
	l.pending = nil

	return Token{Kind: EOF, Pos: l.position()}, err
}

func (l *Lexer) number() Token {
	pos := l.position()
	start := l.pos

	l.digits()

	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		l.advance(1)
		l.digits()
	}

	return Token{Kind: NUMBER, Text: l.src[start:l.pos], Pos: pos}
}

func (l *Lexer) digits() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance(1)
	}
}

func (l *Lexer) ident() Token {
	pos := l.position()
	start := l.pos

	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.advance(1)
	}

	text := l.src[start:l.pos]

	return Token{Kind: LookupIdent(text), Text: text, Pos: pos}
}

// string scans a double-quoted literal. Escapes are kept verbatim. It reports
// false without consuming input if the literal is not terminated.
func (l *Lexer) string() (Token, bool) {
	end := l.pos + 1

	for end < len(l.src) && l.src[end] != '"' {
		if l.src[end] == '\\' {
			end++
		}

		end++
	}

	if end >= len(l.src) {
		return Token{}, false
	}

	pos := l.position()
	text := l.src[l.pos : end+1]

	for l.pos <= end {
		l.advance(1)
	}

	return Token{Kind: STRING, Text: text, Pos: pos}, true
}

func (l *Lexer) operator() (Token, bool) {
	pos := l.position()

	var kind Kind

	switch l.src[l.pos] {
	case '(':
		kind = LPAREN
	case ')':
		kind = RPAREN
	case '+':
		kind = PLUS
	case '-':
		kind = MINUS
	case '/':
		kind = DIV
	case '%':
		kind = MODULUS
	case '=':
		kind = EQUAL
	case '*':
		kind = MUL
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '*' {
			kind = POWER
		}
	default:
		return Token{}, false
	}

	size := 1
	if kind == POWER {
		size = 2
	}

	text := l.src[l.pos : l.pos+size]
	l.advance(size)

	return Token{Kind: kind, Text: text, Pos: pos}, true
}

// illegal reports and skips the character at the current position.
func (l *Lexer) illegal() {
	pos := l.position()
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	err := ErrLex.WithPosition(pos).With(
		slog.String("char", strconv.QuoteRune(r)),
	)
	l.diags = append(l.diags, err)
	l.logger.Warn("illegal character skipped", slog.Any("error", err))

	l.pos += size
	l.col++
}

// advance moves forward n bytes, none of which may be multi-byte runes.
func (l *Lexer) advance(n int) {
	for range n {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}

		l.pos++
	}
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
