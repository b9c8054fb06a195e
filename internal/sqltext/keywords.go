package sqltext

// sqlKeywords are words never checked against the catalog when unquoted.
var sqlKeywords = wordSet(
	"ALL", "AND", "ANY", "ARRAY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CAST", "CROSS",
	"CURRENT", "CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "DEFAULT", "DESC",
	"DISTINCT", "ELSE", "END", "ESCAPE", "EXCEPT", "EXISTS", "FALSE", "FETCH", "FILTER",
	"FIRST", "FOLLOWING", "FOR", "FROM", "FULL", "GROUP", "HAVING", "ILIKE", "IN", "INNER",
	"INTERSECT", "INTERVAL", "INTO", "IS", "ISNULL", "JOIN", "LAST", "LATERAL", "LEFT",
	"LIKE", "LIMIT", "NATURAL", "NEXT", "NOT", "NOTNULL", "NULL", "NULLS", "OF", "OFFSET",
	"ON", "ONLY", "OR", "ORDER", "OUTER", "OVER", "PARTITION", "PRECEDING", "RANGE",
	"RECURSIVE", "RIGHT", "ROW", "ROWS", "SELECT", "SET", "SIMILAR", "SOME", "THEN", "TIES",
	"TO", "TRUE", "UNBOUNDED", "UNION", "UNKNOWN", "USING", "VALUES", "WHEN", "WHERE",
	"WINDOW", "WITH", "WITHIN",
	// date parts
	"CENTURY", "DAY", "DECADE", "DOW", "DOY", "EPOCH", "HOUR", "ISODOW", "MICROSECOND",
	"MILLISECOND", "MINUTE", "MONTH", "QUARTER", "SECOND", "WEEK", "YEAR", "ZONE",
	// type names
	"BIGINT", "BOOL", "BOOLEAN", "CHAR", "CHARACTER", "DATE", "DATETIME", "DECIMAL",
	"DOUBLE", "FLOAT", "INT", "INTEGER", "JSON", "JSONB", "NUMERIC", "PRECISION", "REAL",
	"SIGNED", "SMALLINT", "TEXT", "TIME", "TIMESTAMP", "UNSIGNED", "UUID", "VARCHAR",
	"VARYING",
)

var destructiveKeywords = wordSet(
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "CREATE", "REPLACE",
	"MERGE", "GRANT", "REVOKE",
)

// clauseKeywords end a FROM list.
var clauseKeywords = wordSet(
	"WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "FETCH", "UNION", "INTERSECT",
	"EXCEPT", "WINDOW", "ON", "USING", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS",
	"NATURAL", "LATERAL", "QUALIFY",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

func IsKeyword(t Token) bool {
	if t.Kind != Ident {
		return false
	}
	_, ok := sqlKeywords[t.Value]
	return ok
}

// IsClauseKeyword reports whether t is a bare keyword that ends a FROM list.
func IsClauseKeyword(t Token) bool {
	if t.Kind != Ident {
		return false
	}
	_, ok := clauseKeywords[t.Value]
	return ok
}

// IsDestructive reports whether tokens[i] is a bare write or DDL keyword. A
// keyword used as a function name, as in REPLACE(s, 'a', 'b'), is not.
func IsDestructive(tokens []Token, i int) bool {
	t := tokens[i]
	if t.Kind != Ident {
		return false
	}
	if _, ok := destructiveKeywords[t.Value]; !ok {
		return false
	}
	return i+1 >= len(tokens) || !tokens[i+1].IsPunct("(")
}
