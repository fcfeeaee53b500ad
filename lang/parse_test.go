package lang

import (
	"errors"
	"testing"
)

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "precedence",
			input: "2 add 3 mul 4",
			want:  "(+ 2 (* 3 4))",
		},
		{
			name:  "symbol operators",
			input: "1 + 2 * 3 - 4 / 5 % 6",
			want:  "(- (+ 1 (* 2 3)) (% (/ 4 5) 6))",
		},
		{
			name:  "power is right associative",
			input: "2 pow 3 pow 2",
			want:  "(** 2 (** 3 2))",
		},
		{
			name:  "power binds tighter than mul",
			input: "2 mul 3 ** 2",
			want:  "(* 2 (** 3 2))",
		},
		{
			name:  "equality below arithmetic",
			input: "1 add 1 eql 2",
			want:  "(= (+ 1 1) 2)",
		},
		{
			name:  "not below equality",
			input: "not a = b",
			want:  "(not (= (call a) (call b)))",
		},
		{
			name:  "and binds tighter than or",
			input: "a or b and c",
			want:  "(or (call a) (and (call b) (call c)))",
		},
		{
			name:  "orr alias",
			input: "a orr b xnor c",
			want:  "(xnor (or (call a) (call b)) (call c))",
		},
		{
			name:  "call arguments are atoms",
			input: "f 1 x (g 2) \"s\" true",
			want:  `(call f 1 x (group (call g 2)) "s" true)`,
		},
		{
			name:  "call inside arithmetic",
			input: "f 1 add 2",
			want:  "(+ (call f 1) 2)",
		},
		{
			name:  "set",
			input: "set x 1 add 2",
			want:  "(set x (+ 1 2))",
		},
		{
			name:  "loop header takes no call arguments",
			input: "lop i n m\n    i",
			want:  "(lop i (call n) (call m) (block (call i)))",
		},
		{
			name:  "loop header groups allow calls",
			input: "lop i 1 (f 3)\n    i",
			want:  "(lop i 1 (group (call f 3)) (block (call i)))",
		},
		{
			name:  "def with params",
			input: "def add2 a b\n    ret a add b\n",
			want:  "(def add2 [a b] (block (ret (+ (call a) (call b))) nl))",
		},
		{
			name:  "def without params",
			input: "def f\n    ret\n",
			want:  "(def f [] (block (ret) nl))",
		},
		{
			name:  "iff els",
			input: "iff x\n    1\nels\n    2\n",
			want:  "(iff (call x) (block 1) (block 2 nl))",
		},
		{
			name:  "nested blocks",
			input: "iff a\n    iff b\n        c\nd",
			want:  "(iff (call a) (block (iff (call b) (block (call c))))) (call d)",
		},
		{
			name:  "blank statements",
			input: "a\n\nb\n",
			want:  "(call a) nl (call b) nl",
		},
		{
			name:  "string keeps escapes",
			input: `print "a\"b"`,
			want:  `(call print "a\"b")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := prog.String(); got != tt.want {
				t.Errorf("structure:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "chained equality", input: "a = b = c", want: ErrSyntax},
		{name: "els without iff", input: "els\n    1", want: ErrSyntax},
		{name: "iff without block", input: "iff x\ny", want: ErrSyntax},
		{name: "unclosed group", input: "(1 add 2", want: ErrUnexpectedEOF},
		{name: "dangling operator", input: "1 add", want: ErrUnexpectedEOF},
		{name: "set without name", input: "set 1 2", want: ErrSyntax},
		{name: "def without name", input: "def\n    1", want: ErrSyntax},
		{name: "def without body", input: "def f x", want: ErrUnexpectedEOF},
		{name: "loop without stop", input: "lop i 1\n    i", want: ErrSyntax},
		{name: "stray paren", input: ")", want: ErrSyntax},
		{name: "bad indentation", input: "a\n    b\n  c", want: ErrIndentation},
		{name: "indent after set", input: "set x 1\n    set y 2", want: ErrIndentation},
		{name: "indent after ret", input: "def f\n    ret 1\n        ret 2", want: ErrIndentation},
		{name: "trailing expression after set", input: "set x 1 2", want: ErrSyntax},
		{name: "trailing expression after ret", input: "def f\n    ret 1 2", want: ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseString(t.Context(), tt.input)
			if err == nil {
				t.Fatalf("expected error, got program %s", prog)
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}

			if prog != nil {
				t.Errorf("expected no partial program")
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := ParseString(t.Context(), "set x 1\nset y )")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if got := e.Line(); got != 2 {
		t.Errorf("expected line 2, got %d", got)
	}
}
