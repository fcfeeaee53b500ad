package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/pkg"
)

// program writes src to a temp file and returns its path.
func program(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "main.bthn")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		define  []string
		depth   int
		want    string
		wantErr error
	}{
		{
			name: "print",
			src:  "def sq n\n    ret n mul n\nprint (sq 7)\n",
			want: "49\n",
		},
		{
			name:   "defines",
			src:    "print limit name (limit add 1) flag\n",
			define: []string{"limit=2 * 5", `name="a" + "b"`, "flag=limit > 3"},
			want:   "10 ab 11 true\n",
		},
		{
			name:    "runtime error",
			src:     "print (1 div 0)\n",
			wantErr: lang.ErrArithmetic,
		},
		{
			name:    "syntax error",
			src:     "set 1 2\n",
			wantErr: lang.ErrSyntax,
		},
		{
			name:    "max depth",
			src:     "def f\n    ret f\nf\n",
			depth:   20,
			wantErr: lang.ErrMaxDepthExceeded,
		},
		{
			name:    "bad define",
			src:     "print 1\n",
			define:  []string{"set=1"},
			wantErr: ErrDefine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			r := &Run{Source: program(t, tt.src), Define: tt.define, MaxDepth: tt.depth}

			err := r.Run(WithOutput(t.Context(), &out))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("run error: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output: got %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRun_MissingSource(t *testing.T) {
	r := &Run{Source: filepath.Join(t.TempDir(), "nope.bthn")}

	if err := r.Run(t.Context()); !errors.Is(err, ErrOpenSource) {
		t.Errorf("expected ErrOpenSource, got %v", err)
	}
}

func TestGen(t *testing.T) {
	src := program(t, "def f a\n    ret a add 1\nprint (f 1)\n")

	tests := []struct {
		name   string
		gen    Gen
		want   string
	}{
		{
			name: "spaces",
			gen:  Gen{Indent: 2},
			want: "def f(a):\n  return a + 1\nprint((f(1)))\n",
		},
		{
			name: "tabs",
			gen:  Gen{Indent: 0},
			want: "def f(a):\n\treturn a + 1\nprint((f(1)))\n",
		},
		{
			name: "defines",
			gen:  Gen{Indent: 4, Define: []string{"k=3"}},
			want: "k = 3\ndef f(a):\n    return a + 1\nprint((f(1)))\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			g := tt.gen
			g.Source = src

			if err := g.Run(WithOutput(t.Context(), &out)); err != nil {
				t.Fatalf("gen error: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output:\n got %q\nwant %q", out.String(), tt.want)
			}
		})
	}
}

func TestGen_Exec(t *testing.T) {
	var out bytes.Buffer

	g := &Gen{
		Indent: 4,
		Exec:   true,
		Source: program(t, "set x 2 pow 10\nset s \"hi\"\nprint x\n"),
	}

	if err := g.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("gen error: %v", err)
	}

	want := "1024\ns = \"hi\"\nx = 1024\n"
	if out.String() != want {
		t.Errorf("output:\n got %q\nwant %q", out.String(), want)
	}
}

func TestGen_ExecFunctionScope(t *testing.T) {
	var out bytes.Buffer

	g := &Gen{
		Indent: 2,
		Exec:   true,
		Source: program(t, "set x 1\ndef f\n  set x x add 1\n  ret x\nprint (f) (x xor 0)\n"),
	}

	if err := g.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("gen error: %v", err)
	}

	want := "2 true\nx = 1\n"
	if out.String() != want {
		t.Errorf("output:\n got %q\nwant %q", out.String(), want)
	}
}

func TestTokens(t *testing.T) {
	src := program(t, "iff x\n    print $ \"a\"\n")

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer

		if err := (&Tokens{Format: "text", Source: src}).Run(WithOutput(t.Context(), &out)); err != nil {
			t.Fatalf("tokens error: %v", err)
		}

		got := out.String()
		for _, want := range []string{"1:1\tIFF", "2:5\tIDENT\tprint", "warning: "} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output:\n%s", want, got)
			}
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer

		if err := (&Tokens{Format: "yaml", Source: src}).Run(WithOutput(t.Context(), &out)); err != nil {
			t.Fatalf("tokens error: %v", err)
		}

		var dump tokenDump
		if err := yaml.Unmarshal(out.Bytes(), &dump); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}

		if len(dump.Tokens) == 0 || dump.Tokens[0].Kind != lang.IFF.String() {
			t.Errorf("unexpected tokens %+v", dump.Tokens)
		}

		if last := dump.Tokens[len(dump.Tokens)-1]; last.Kind != lang.EOF.String() {
			t.Errorf("expected EOF last, got %+v", last)
		}

		if len(dump.Diagnostics) != 1 {
			t.Errorf("expected one diagnostic, got %v", dump.Diagnostics)
		}
	})

	t.Run("indentation error", func(t *testing.T) {
		err := (&Tokens{Format: "text", Source: program(t, "a\n    b\n  c\n")}).Run(t.Context())
		if !errors.Is(err, lang.ErrIndentation) {
			t.Errorf("expected ErrIndentation, got %v", err)
		}
	})
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer

	if err := (Version{}).Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("version error: %v", err)
	}

	want := pkg.Name + " " + strings.TrimSpace(pkg.Version) + "\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}
