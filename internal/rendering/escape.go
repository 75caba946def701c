package rendering

import (
	"fmt"
	"strings"
	"unicode"
)

// latexEscapes maps each character LaTeX treats specially to its literal form
var latexEscapes = map[rune]string{
	'\\': `\textbackslash{}`,
	'{':  `\{`,
	'}':  `\}`,
	'$':  `\$`,
	'&':  `\&`,
	'%':  `\%`,
	'#':  `\#`,
	'^':  `\textasciicircum{}`,
	'_':  `\_`,
	'~':  `\textasciitilde{}`,
	'<':  `\textless{}`,
	'>':  `\textgreater{}`,
	'|':  `\textbar{}`,
}

// EscapeLaTeX makes text safe to place in a LaTeX document body.
// Each rune is looked at once, so the backslashes it emits are never escaped again.
// Invalid UTF-8 sequences become U+FFFD.
func EscapeLaTeX(text string) string {
	text = strings.ToValidUTF8(text, string(unicode.ReplacementChar))
	if !strings.ContainsFunc(text, needsEscape) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(text)/2)
	for _, r := range text {
		if repl, ok := latexEscapes[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func needsEscape(r rune) bool {
	_, ok := latexEscapes[r]
	return ok
}

// linkTarget makes a URL safe as the first argument of \href.
// Grouping characters, backslashes and whitespace are percent-encoded, which leaves
// an equivalent URL that cannot close the argument. '%' and '#' get the backslash
// form hyperref expects.
func linkTarget(url string) string {
	url = strings.ToValidUTF8(strings.TrimSpace(url), string(unicode.ReplacementChar))
	var b strings.Builder
	b.Grow(len(url))
	for _, r := range url {
		switch {
		case r == '%' || r == '#':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x80 && (r <= ' ' || r == 0x7f || strings.ContainsRune(`{}\^~<>|"`+"`", r)):
			fmt.Fprintf(&b, `\%%%02X`, r)
		case unicode.IsSpace(r) || unicode.IsControl(r):
			for _, c := range []byte(string(r)) {
				fmt.Fprintf(&b, `\%%%02X`, c)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeValue coerces any value to its string form and escapes it. nil becomes "".
func EscapeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return EscapeLaTeX(v)
	case fmt.Stringer:
		return EscapeLaTeX(v.String())
	default:
		return EscapeLaTeX(fmt.Sprint(v))
	}
}
