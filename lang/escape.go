package lang

import (
	"strconv"
	"strings"
)

// Unescape decodes the backslash escapes of a string literal body.
// Unknown escapes are kept verbatim.
func Unescape(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	var b strings.Builder

	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)

			continue
		}

		i++

		switch e := raw[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\', '"', '\'':
			b.WriteByte(e)
		case 'x', 'u':
			width := 2
			if e == 'u' {
				width = 4
			}

			if r, ok := hexRune(raw[i+1:], width); ok {
				b.WriteRune(r)
				i += width
			} else {
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}

	return b.String()
}

func hexRune(s string, width int) (rune, bool) {
	if len(s) < width {
		return 0, false
	}

	n, err := strconv.ParseUint(s[:width], 16, 32)
	if err != nil {
		return 0, false
	}

	return rune(n), true
}
