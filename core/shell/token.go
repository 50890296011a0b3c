package shell

import (
	"strings"
	"unicode"
)

// Token is one word or operator produced by Tokenize.
type Token struct {
	Val string
	// Op marks an operator token. Only entirely bare tokens (no
	// quoting, no escapes) are operators.
	Op bool
}

// operators are the strings recognized as operators when they form a
// whole bare token.
var operators = map[string]bool{
	"|":   true,
	">":   true,
	">>":  true,
	"1>":  true,
	"1>>": true,
	"2>":  true,
	"2>>": true,
}

// Tokenize splits one input line into word and operator tokens.
//
// Whitespace outside quotes separates tokens. Single quotes preserve
// their contents literally. Inside double quotes a backslash escapes
// ", \, $ and ` and stays literal before anything else. An unquoted
// backslash escapes the next character; one trailing at end of line is
// dropped. Empty quoted words ("") produce no token. An unterminated
// quote fails with ErrUnterminatedQuote.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	var cur strings.Builder
	bare := true

	flush := func() {
		if cur.Len() == 0 {
			bare = true
			return
		}
		val := cur.String()
		tokens = append(tokens, Token{Val: val, Op: bare && operators[val]})
		cur.Reset()
		bare = true
	}

	runes := []rune(line)
	for i := 0; i < len(runes); {
		switch c := runes[i]; {
		case unicode.IsSpace(c):
			flush()
			i++

		case c == '\'':
			bare = false
			i++
			for {
				if i >= len(runes) {
					return nil, ErrUnterminatedQuote
				}
				if runes[i] == '\'' {
					i++
					break
				}
				cur.WriteRune(runes[i])
				i++
			}

		case c == '"':
			bare = false
			i++
			for {
				if i >= len(runes) {
					return nil, ErrUnterminatedQuote
				}
				c := runes[i]
				if c == '"' {
					i++
					break
				}
				if c == '\\' && i+1 < len(runes) {
					switch next := runes[i+1]; next {
					case '"', '\\', '$', '`':
						cur.WriteRune(next)
					default:
						cur.WriteRune('\\')
						cur.WriteRune(next)
					}
					i += 2
					continue
				}
				cur.WriteRune(c)
				i++
			}

		case c == '\\':
			if i+1 < len(runes) {
				bare = false
				cur.WriteRune(runes[i+1])
				i += 2
			} else {
				i++
			}

		default:
			cur.WriteRune(c)
			i++
		}
	}
	flush()

	return tokens, nil
}
