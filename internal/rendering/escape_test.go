package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLaTeX(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Led a team of 5 engineers (2019-2021)", "Led a team of 5 engineers (2019-2021)"},
		{"backslash", `C:\tmp`, `C:\textbackslash{}tmp`},
		{"braces", "text{with}braces", `text\{with\}braces`},
		{"dollar", "cost $100", `cost \$100`},
		{"ampersand", "A & B", `A \& B`},
		{"percent", "100% complete", `100\% complete`},
		{"hash", "issue #123", `issue \#123`},
		{"caret", "x^2", `x\textasciicircum{}2`},
		{"underscore", "snake_case", `snake\_case`},
		{"tilde", "~approx", `\textasciitilde{}approx`},
		{"angle brackets and pipe", "a < b > c | d", `a \textless{} b \textgreater{} c \textbar{} d`},
		{"all reserved", `${}~&%#^_\`, `\$\{\}\textasciitilde{}\&\%\#\textasciicircum{}\_\textbackslash{}`},
		{"unicode passes through", "résumé α β γ", "résumé α β γ"},
		{"metrics", "Served $1M+ requests/day at 99.9% uptime", `Served \$1M+ requests/day at 99.9\% uptime`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLaTeX(tt.in))
		})
	}
}

func TestEscapeLaTeX_EmittedBackslashesNotReescaped(t *testing.T) {
	out := EscapeLaTeX("50% faster & $2M saved")
	assert.Equal(t, `50\% faster \& \$2M saved`, out)
	assert.NotContains(t, out, "textbackslash")
}

func TestEscapeLaTeX_KeepsOrderOfOrdinaryCharacters(t *testing.T) {
	var kept []rune
	for _, r := range EscapeLaTeX("a_b{c}d") {
		if !needsEscape(r) {
			kept = append(kept, r)
		}
	}
	assert.Equal(t, "abcd", string(kept))
}

func TestEscapeValue(t *testing.T) {
	assert.Equal(t, "", EscapeValue(nil))
	assert.Equal(t, "42", EscapeValue(42))
	assert.Equal(t, "3.5", EscapeValue(3.5))
	assert.Equal(t, "true", EscapeValue(true))
	assert.Equal(t, `\$5`, EscapeValue("$5"))
}

func TestEscapeLaTeX_InvalidUTF8(t *testing.T) {
	assert.Equal(t, "a�", EscapeLaTeX("a\xff"))
	assert.Equal(t, "a�\\&", EscapeLaTeX("a\xff&"))
}

func TestLinkTarget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://github.com/jane_doe", "https://github.com/jane_doe"},
		{"mailto", "mailto:jane@example.com", "mailto:jane@example.com"},
		{"trimmed", "  https://x.com  ", "https://x.com"},
		{"braces and backslash", `https://x.com/}\a{`, `https://x.com/\%7D\%5Ca\%7B`},
		{"whitespace", "https://x.com/a b\tc\nd", `https://x.com/a\%20b\%09c\%0Ad`},
		{"percent and hash", "https://x.com/p?q=50%25#top", `https://x.com/p?q=50\%25\#top`},
		{"tilde and caret", "https://x.com/~me^2", `https://x.com/\%7Eme\%5E2`},
		{"unicode passes through", "https://x.com/résumé", "https://x.com/résumé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linkTarget(tt.in))
		})
	}
}
