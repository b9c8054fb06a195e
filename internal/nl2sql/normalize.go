package nl2sql

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const fence = "```"

// Normalize strips Markdown fences and SQL comments from raw model output and
// collapses whitespace outside quoted text. It is idempotent.
func Normalize(raw string) string {
	return collapse(stripFences(raw))
}

func stripFences(s string) string {
	for {
		idx := strings.Index(s, fence)
		if idx < 0 {
			return s
		}
		end := idx + len(fence)
		for end < len(s) && isASCIILetter(s[end]) {
			end++
		}
		s = s[:idx] + s[end:]
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// collapse drops comments and squeezes whitespace in a single pass. Quoted
// segments are copied verbatim; an unterminated quote runs to the end.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false

	emit := func(segment string) {
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteString(segment)
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				i = len(s)
			} else {
				i += end
			}
			pendingSpace = true
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += 2 + end + 2
			}
			pendingSpace = true
		case c == '\'' || c == '"' || c == '`':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				emit(s[i:])
				i = len(s)
			} else {
				emit(s[i : i+1+end+1])
				i += end + 2
			}
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if unicode.IsSpace(r) {
				pendingSpace = true
			} else {
				emit(s[i : i+size])
			}
			i += size
		}
	}
	return strings.TrimSpace(b.String())
}
