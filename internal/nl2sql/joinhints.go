package nl2sql

import "strings"

// JoinHint describes how two tables relate. It is only rendered when both
// tables are part of the preview.
type JoinHint struct {
	Left      string
	Right     string
	Predicate string
}

var DefaultJoinHints = []JoinHint{
	{Left: "customers", Right: "orders", Predicate: "customers.customer_id = orders.customer_id"},
	{Left: "orders", Right: "order_items", Predicate: "orders.order_id = order_items.order_id"},
	{Left: "products", Right: "order_items", Predicate: "products.product_id = order_items.product_id"},
}

var DefaultNotes = []string{
	"Korea is written as 'Korea' in country values.",
	"Use only the tables and columns listed above.",
}

func applicableHints(hints []JoinHint, preview Preview) []JoinHint {
	out := make([]JoinHint, 0, len(hints))
	for _, hint := range hints {
		if strings.TrimSpace(hint.Predicate) == "" {
			continue
		}
		if preview.HasTable(hint.Left) && preview.HasTable(hint.Right) {
			out = append(out, hint)
		}
	}
	return out
}
