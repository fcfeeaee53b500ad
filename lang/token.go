package lang

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Kind identifies the lexical class of a [Token].
type Kind uint8

// Token kinds.
const (
	EOF Kind = iota
	NEWLINE
	INDENT
	DEDENT

	NUMBER
	STRING
	BOOL
	IDENT

	LPAREN
	RPAREN

	IFF
	ELS
	DEF
	LOP
	RET
	SET

	NOT
	AND
	OR
	XOR
	NAND
	NOR
	XNOR
	EQUAL

	PLUS
	MINUS
	MUL
	DIV
	MODULUS
	POWER
)

var kindName = [...]string{
	EOF:     "EOF",
	NEWLINE: "NEWLINE",
	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	BOOL:    "BOOL",
	IDENT:   "IDENT",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	IFF:     "IFF",
	ELS:     "ELS",
	DEF:     "DEF",
	LOP:     "LOP",
	RET:     "RET",
	SET:     "SET",
	NOT:     "NOT",
	AND:     "AND",
	OR:      "OR",
	XOR:     "XOR",
	NAND:    "NAND",
	NOR:     "NOR",
	XNOR:    "XNOR",
	EQUAL:   "EQUAL",
	PLUS:    "PLUS",
	MINUS:   "MINUS",
	MUL:     "MUL",
	DIV:     "DIV",
	MODULUS: "MODULUS",
	POWER:   "POWER",
}

// String returns the upper-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Structural reports whether k is synthesized from line layout.
func (k Kind) Structural() bool {
	return k == NEWLINE || k == INDENT || k == DEDENT
}

// keywords maps every reserved word to its token kind.
var keywords = map[string]Kind{
	"iff":   IFF,
	"els":   ELS,
	"def":   DEF,
	"lop":   LOP,
	"ret":   RET,
	"set":   SET,
	"true":  BOOL,
	"false": BOOL,
	"not":   NOT,
	"and":   AND,
	"or":    OR,
	"orr":   OR,
	"xor":   XOR,
	"nand":  NAND,
	"nor":   NOR,
	"xnor":  XNOR,
	"eql":   EQUAL,
	"pow":   POWER,
	"mul":   MUL,
	"add":   PLUS,
	"sub":   MINUS,
	"div":   DIV,
	"mod":   MODULUS,
}

// Keywords returns the reserved words of the language.
func Keywords() []string {
	return slices.Sorted(maps.Keys(keywords))
}

// LookupIdent classifies an identifier as a keyword kind or [IDENT].
func LookupIdent(s string) Kind {
	if k, ok := keywords[s]; ok {
		return k
	}

	return IDENT
}

// Position is a location in source text. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is a single lexical unit.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}

	return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
}
