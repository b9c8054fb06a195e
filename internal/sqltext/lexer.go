// Package sqltext tokenises SQL text without parsing it.
package sqltext

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	Ident Kind = iota
	QuotedIdent
	String
	Number
	Punct
)

type Token struct {
	Kind Kind
	// Text is the raw source text; Value is the unquoted identifier or
	// the upper-cased keyword candidate for bare identifiers.
	Text  string
	Value string
	Pos   int
}

func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

func (t Token) IsWord(word string) bool {
	return t.Kind == Ident && t.Value == word
}

func (t Token) IsIdentifier() bool {
	return t.Kind == Ident || t.Kind == QuotedIdent
}

func (t Token) Name() string {
	if t.Kind == QuotedIdent {
		return t.Value
	}
	return t.Text
}

// Lex splits sqlText into tokens, skipping whitespace and comments. It stops
// at the first unterminated string, identifier or comment and reports it.
func Lex(sqlText string) ([]Token, error) {
	tokens := make([]Token, 0, len(sqlText)/4)
	for i := 0; i < len(sqlText); {
		c := sqlText[i]
		switch {
		case c == '-' && i+1 < len(sqlText) && sqlText[i+1] == '-':
			end := strings.IndexByte(sqlText[i:], '\n')
			if end < 0 {
				return tokens, nil
			}
			i += end + 1
		case c == '/' && i+1 < len(sqlText) && sqlText[i+1] == '*':
			end := strings.Index(sqlText[i+2:], "*/")
			if end < 0 {
				return tokens, fmt.Errorf("unterminated block comment at position %d", i)
			}
			i += end + 4
		case c == '\'':
			end, ok := scanQuoted(sqlText, i, '\'')
			if !ok {
				return tokens, fmt.Errorf("unterminated string literal at position %d", i)
			}
			tokens = append(tokens, Token{Kind: String, Text: sqlText[i:end], Pos: i})
			i = end
		case c == '"' || c == '`':
			end, ok := scanQuoted(sqlText, i, c)
			if !ok {
				return tokens, fmt.Errorf("unterminated quoted identifier at position %d", i)
			}
			raw := sqlText[i:end]
			inner := raw[1 : len(raw)-1]
			inner = strings.ReplaceAll(inner, string([]byte{c, c}), string(c))
			tokens = append(tokens, Token{Kind: QuotedIdent, Text: raw, Value: inner, Pos: i})
			i = end
		case c >= '0' && c <= '9' || (c == '.' && i+1 < len(sqlText) && isDigit(sqlText[i+1])):
			end := i + 1
			for end < len(sqlText) && (isDigit(sqlText[end]) || sqlText[end] == '.' || sqlText[end] == 'e' || sqlText[end] == 'E') {
				end++
			}
			tokens = append(tokens, Token{Kind: Number, Text: sqlText[i:end], Pos: i})
			i = end
		default:
			r, size := utf8.DecodeRuneInString(sqlText[i:])
			switch {
			case unicode.IsSpace(r):
				i += size
			case isIdentStart(r):
				end := i + size
				for end < len(sqlText) {
					next, nextSize := utf8.DecodeRuneInString(sqlText[end:])
					if !isIdentPart(next) {
						break
					}
					end += nextSize
				}
				text := sqlText[i:end]
				tokens = append(tokens, Token{Kind: Ident, Text: text, Value: strings.ToUpper(text), Pos: i})
				i = end
			default:
				text := punctAt(sqlText, i, size)
				tokens = append(tokens, Token{Kind: Punct, Text: text, Pos: i})
				i += len(text)
			}
		}
	}
	return tokens, nil
}

// scanQuoted returns the index just past the closing quote. A doubled quote
// character is an escaped quote.
func scanQuoted(s string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(s); i++ {
		if s[i] != quote {
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			i++
			continue
		}
		return i + 1, true
	}
	return 0, false
}

var multiCharPunct = []string{"::", "<=", ">=", "<>", "!=", "||", "->>", "->"}

func punctAt(s string, i, size int) string {
	for _, p := range multiCharPunct {
		if strings.HasPrefix(s[i:], p) {
			return p
		}
	}
	return s[i : i+size]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
