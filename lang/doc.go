// Package lang implements bthn, a small indentation-sensitive language.
//
// Source text is tokenized by a [Lexer] that turns changes of leading
// whitespace into INDENT and DEDENT tokens, parsed by a precedence-climbing
// parser into a tree of [Node] values, and then either evaluated directly or
// translated to Python 3 source.
//
// # Grammar
//
// Informal EBNF:
//
//	Program    → Statement* EOF
//	Statement  → NEWLINE | If | Def | Set | Loop | Return | Expr
//	If         → 'iff' Expr Block ('els' Block)?
//	Def        → 'def' IDENT IDENT* Block
//	Set        → 'set' IDENT Expr
//	Loop       → 'lop' IDENT Expr Expr Block
//	Return     → 'ret' Expr?
//	Block      → INDENT Statement+ DEDENT
//
// Operators from lowest to highest precedence:
//
//	or orr xor nor xnor  (left)
//	and nand             (left)
//	not                  (prefix)
//	eql =                (non-associative)
//	add sub + -          (left)
//	mul div mod * / %    (left)
//	pow **               (right)
//
// An identifier followed by atoms (literals, names or parenthesized
// expressions) is a call. Inside a loop header calls take no arguments, so
// that the step and stop expressions can be told apart:
//
//	def square n
//	    ret n mul n
//
//	set total 0
//	lop i 1 (square 3)
//	    set total total add i
//	print total
//
// # Scoping
//
// A definition captures the environment it appears in by reference. Each
// call runs in a copy of that environment as it is at call time, so a
// function sees bindings made after it was defined, and its own
// assignments never leak out. Definitions in a block are hoisted ahead of
// the other statements of that block.
//
// # Values
//
// Reading a name that has never been bound binds it to the unbound value,
// which is falsy, prints as none and can be passed around. This is
// reported as a diagnostic and is never fatal.
package lang
