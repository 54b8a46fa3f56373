// ABOUTME: Rewrites the HOCON dialect ClearML writes into text the parser accepts
// ABOUTME: Unquoted URL values are quoted so "//" is not read as a comment, and comments are dropped
package hocon

import (
	"regexp"
	"strings"
)

// urlStart matches a URI scheme followed by "://" at the start of a token
var urlStart = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// rewriteDialect quotes every unquoted value of the form scheme://... and
// removes comments up to the end of their line. Quoted and triple-quoted
// strings are copied unchanged. A URL ends at whitespace or at one of
// , } ] " $ #.
func rewriteDialect(text string) string {
	if !strings.Contains(text, "://") && !strings.Contains(text, "#") && !strings.Contains(text, "//") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16)

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case strings.HasPrefix(text[i:], `"""`):
			end := strings.Index(text[i+3:], `"""`)
			if end < 0 {
				b.WriteString(text[i:])
				return b.String()
			}
			// a closing run of more than three quotes belongs to the string
			j := i + 3 + end + 3
			for j < len(text) && text[j] == '"' {
				j++
			}
			b.WriteString(text[i:j])
			i = j
		case c == '"':
			j := i + 1
			for j < len(text) && text[j] != '"' && text[j] != '\n' {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(text) && text[j] == '"' {
				j++
			}
			if j > len(text) {
				j = len(text)
			}
			b.WriteString(text[i:j])
			i = j
		case c == '#', strings.HasPrefix(text[i:], "//"):
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				return b.String()
			}
			i += j
		case tokenStart(text, i) && urlStart.MatchString(text[i:]):
			j := i
			for j < len(text) && !endsURL(text[j]) {
				j++
			}
			b.WriteString(quote(text[i:j]))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// tokenStart reports whether position i begins a new token
func tokenStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch text[i-1] {
	case ' ', '\t', '\n', '\r', ':', '=', '[', ',', '{':
		return true
	}
	return false
}

func endsURL(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '}', ']', '"', '$', '#':
		return true
	}
	return false
}
