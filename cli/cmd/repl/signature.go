package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/bthn/lang"
)

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call the cursor is in.
type functionCall struct {
	name     string // name of the callee
	argIndex int    // index of the argument being typed (0-based)
	inCall   bool   // true if the cursor is past the callee name
}

// detectFunctionCall reports the call whose argument list contains the
// cursor. Only the innermost unclosed group is considered, and a call ends
// at the first binary operator that follows it.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	segment := input[:cursor]

	depth := 0

	for i := len(segment) - 1; i >= 0; i-- {
		switch segment[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				segment = segment[i+1:]

				goto scan
			}

			depth--
		}
	}

scan:
	trailing := strings.HasSuffix(segment, " ") || strings.HasSuffix(segment, "\t")

	var (
		name   string
		atoms  int
		target bool // next IDENT is the target of set
	)

	depth = 0

	for tok, err := range lang.Tokenize(strings.TrimSpace(segment)) {
		if err != nil || tok.Kind == lang.EOF {
			break
		}

		switch {
		case tok.Kind == lang.LPAREN:
			if depth == 0 && name != "" {
				atoms++
			}

			depth++

			continue
		case tok.Kind == lang.RPAREN:
			depth--

			continue
		case depth > 0:
			continue
		}

		switch tok.Kind {
		case lang.DEF, lang.LOP:
			return functionCall{}
		case lang.SET:
			target = true
		case lang.RET, lang.IFF, lang.ELS, lang.NOT:
		case lang.IDENT:
			switch {
			case target:
				target = false
			case name == "":
				name = tok.Text
			default:
				atoms++
			}
		case lang.NUMBER, lang.STRING, lang.BOOL:
			if name != "" {
				atoms++
			}
		default:
			// An operator ends any pending call.
			name, atoms = "", 0
		}
	}

	if name == "" || (atoms == 0 && !trailing) {
		return functionCall{}
	}

	idx := atoms
	if !trailing {
		idx--
	}

	return functionCall{name: name, argIndex: idx, inCall: true}
}

// getSignature returns the parameter names of the callable bound to name.
// A builtin accepts any number of arguments, which is shown as a single
// variadic parameter.
func getSignature(env *lang.Environment, name string) (params []string, ok bool) {
	v, bound := env.Lookup(name)
	if !bound {
		return nil, false
	}

	fn, callable := v.AsCallable()
	if !callable {
		return nil, false
	}

	switch fn := fn.(type) {
	case *lang.Function:
		return fn.Params, true
	default:
		return []string{"args..."}, true
	}
}

// renderSignatureHint renders "name a b" with the parameter at argIdx
// highlighted.
func renderSignatureHint(name string, params []string, argIdx int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))

	for i, param := range params {
		b.WriteString(signatureStyle.Render(" "))

		variadic := strings.HasSuffix(param, "...")

		if i == argIdx || (variadic && argIdx >= i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	if len(params) == 0 {
		b.WriteString(signatureStyle.Render(" (no arguments)"))
	}

	return b.String()
}
