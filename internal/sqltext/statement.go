package sqltext

import (
	"errors"
	"fmt"
	"strings"
)

// Statement is the top-level shape of a token stream.
type Statement struct {
	// Head is the index of the first token that is not an opening
	// parenthesis, or -1 when there is none.
	Head int
	// End is the index of the first top-level ';', or len(tokens).
	End int
	// Multiple is set when anything but ';' follows End.
	Multiple bool
	// Unbalanced is set when the parentheses do not pair up.
	Unbalanced bool
	// Destructive holds the indexes of write and DDL keywords.
	Destructive []int
}

func Inspect(tokens []Token) Statement {
	st := Statement{Head: -1, End: len(tokens)}
	for i, t := range tokens {
		if !t.IsPunct("(") {
			st.Head = i
			break
		}
	}

	depth := 0
	for i, t := range tokens {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
			if depth < 0 {
				st.Unbalanced = true
			}
		case t.IsPunct(";") && depth <= 0 && st.End == len(tokens):
			st.End = i
		}
		if i > st.End && !t.IsPunct(";") {
			st.Multiple = true
		}
		if IsDestructive(tokens, i) {
			st.Destructive = append(st.Destructive, i)
		}
	}
	if depth != 0 {
		st.Unbalanced = true
	}
	return st
}

// IsRead reports whether the statement starts with SELECT or WITH.
func (st Statement) IsRead(tokens []Token) bool {
	if st.Head < 0 || st.Head >= len(tokens) {
		return false
	}
	head := tokens[st.Head]
	return head.IsWord("SELECT") || head.IsWord("WITH")
}

// ReadOnly returns nil when sqlText is exactly one read statement without
// write or DDL keywords, and the first problem found otherwise.
func ReadOnly(sqlText string) error {
	tokens, err := Lex(sqlText)
	if err != nil {
		return err
	}
	st := Inspect(tokens)
	switch {
	case st.Head < 0:
		return errors.New("empty statement")
	case !st.IsRead(tokens):
		return fmt.Errorf("only SELECT or WITH statements are allowed, got %q", tokens[st.Head].Text)
	case st.Multiple:
		return errors.New("multiple statements are not allowed")
	case st.Unbalanced:
		return errors.New("unbalanced parentheses")
	case len(st.Destructive) > 0:
		return fmt.Errorf("destructive keyword %s is not allowed", tokens[st.Destructive[0]].Value)
	}
	return nil
}

// Split cuts a script into its statements at top-level semicolons. Quoted
// text and comments never split; empty statements are dropped.
func Split(script string) ([]string, error) {
	tokens, err := Lex(script)
	if err != nil {
		return nil, err
	}
	var statements []string
	start, depth := 0, 0
	for _, t := range tokens {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case t.IsPunct(";") && depth <= 0:
			statements = appendStatement(statements, script[start:t.Pos])
			start = t.Pos + 1
		}
	}
	return appendStatement(statements, script[start:]), nil
}

func appendStatement(statements []string, text string) []string {
	if tokens, _ := Lex(text); len(tokens) == 0 {
		return statements
	}
	return append(statements, strings.TrimSpace(text))
}
