package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundsql/groundsql/internal/datastore"
)

func newTestLoop(completer Completer, cfg LoopConfig) *Loop {
	return NewLoop(nil, nil, NewGenerator(completer, 0), nil, cfg, nil)
}

func TestRunAcceptsFirstValidCandidate(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{"```sql\nSELECT name, email FROM customers WHERE country = 'Korea';\n```"}}
	src := shopSource()

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 3}).Run(context.Background(), "한국 고객들의 이름과 이메일을 보여줘", shopCatalog(), src)
	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.ErrorMessage)
	}
	if result.SQL != "SELECT name, email FROM customers WHERE country = 'Korea';" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	for _, marker := range []string{"```", "--", "/*"} {
		if strings.Contains(result.SQL, marker) {
			t.Fatalf("SQL contains %q", marker)
		}
	}
	if result.Attempts != 1 || completer.calls() != 1 || src.pings != 1 {
		t.Fatalf("attempts=%d calls=%d pings=%d, want one cycle", result.Attempts, completer.calls(), src.pings)
	}
	if result.Strategy != ToolStrategyName {
		t.Fatalf("Strategy = %q", result.Strategy)
	}
	if result.Elapsed <= 0 {
		t.Fatalf("Elapsed = %s", result.Elapsed)
	}
	if !strings.Contains(completer.requests[0].Prompt, "row 1: {customer_id: 1") {
		t.Fatalf("prompt missing sample rows:\n%s", completer.requests[0].Prompt)
	}
}

func TestRunAcceptsCategoryAverageJoinFirstTry(t *testing.T) {
	answer := "```sql\n" +
		"-- average order amount per category\n" +
		"SELECT p.category, AVG(o.total_amount) AS avg_order_amount\n" +
		"FROM orders o\n" +
		"JOIN customers c ON o.customer_id = c.customer_id\n" +
		"JOIN order_items oi ON o.order_id = oi.order_id\n" +
		"JOIN products p ON oi.product_id = p.product_id /* by product */\n" +
		"WHERE c.country = 'Korea'\n" +
		"  AND o.order_date >= CURRENT_DATE - INTERVAL '3' MONTH\n" +
		"GROUP BY p.category\n" +
		"ORDER BY avg_order_amount DESC;\n" +
		"```"
	completer := &scriptedCompleter{outputs: []string{answer}}
	src := shopSource()
	loop := NewLoop(nil, nil, NewGenerator(completer, 0), NewValidator(ValidatorConfig{}), LoopConfig{MaxAttempts: 3}, nil)

	result := loop.Run(context.Background(), "average order amount per category for Korean customers in the last 3 months", shopCatalog(), src)
	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.ErrorMessage)
	}
	if result.Attempts != 1 || completer.calls() != 1 || src.pings != 1 {
		t.Fatalf("attempts=%d calls=%d pings=%d, want one cycle", result.Attempts, completer.calls(), src.pings)
	}
	for _, marker := range []string{"```", "--", "/*", "*/"} {
		if strings.Contains(result.SQL, marker) {
			t.Fatalf("SQL contains %q: %s", marker, result.SQL)
		}
	}
	for _, fragment := range []string{"JOIN order_items oi", "JOIN products p", "GROUP BY p.category"} {
		if !strings.Contains(result.SQL, fragment) {
			t.Fatalf("SQL missing %q: %s", fragment, result.SQL)
		}
	}
	for _, table := range []string{"customers", "orders", "products", "order_items"} {
		if !strings.Contains(completer.requests[0].Prompt, table) {
			t.Fatalf("prompt missing table %s", table)
		}
	}
}

func TestRunRetriesRejectedCandidate(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		"SELECT nonexistent FROM customers",
		"SELECT name FROM customers",
	}}
	src := shopSource()

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 3, FeedbackOnRetry: true}).Run(context.Background(), "names", shopCatalog(), src)
	if !result.Success || result.Attempts != 2 {
		t.Fatalf("result = %+v", result)
	}
	if src.pings != 2 {
		t.Fatalf("pings = %d, want samples recollected per attempt", src.pings)
	}
	if !strings.Contains(completer.requests[1].Prompt, "column nonexistent does not exist") {
		t.Fatalf("retry prompt missing feedback:\n%s", completer.requests[1].Prompt)
	}
}

func TestRunStopsAfterMaxAttempts(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{"SELECT nonexistent FROM customers"}}

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 3}).Run(context.Background(), "q", shopCatalog(), shopSource())
	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if result.Attempts != 3 || completer.calls() != 3 {
		t.Fatalf("attempts=%d calls=%d", result.Attempts, completer.calls())
	}
	if !errors.Is(result.Err, ErrValidationFailed) {
		t.Fatalf("Err = %v, want ErrValidationFailed", result.Err)
	}
	if !strings.Contains(result.ErrorMessage, "nonexistent") || !strings.Contains(result.ErrorMessage, "3 attempts") {
		t.Fatalf("ErrorMessage = %q", result.ErrorMessage)
	}
	if strings.Contains(completer.requests[1].Prompt, "rejected") {
		t.Fatal("feedback appended although disabled")
	}
}

func TestRunUnboundedRetriesUntilAccepted(t *testing.T) {
	outputs := make([]string, 0, 6)
	for i := 0; i < 5; i++ {
		outputs = append(outputs, "SELECT bogus FROM customers")
	}
	outputs = append(outputs, "SELECT name FROM customers")
	completer := &scriptedCompleter{outputs: outputs}

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 0}).Run(context.Background(), "q", shopCatalog(), shopSource())
	if !result.Success || result.Attempts != 6 {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunAbortsWhenStoreUnreachable(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{"SELECT 1"}}
	src := shopSource()
	src.pingErr = errors.New("connection refused")

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 3}).Run(context.Background(), "q", shopCatalog(), src)
	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if !errors.Is(result.Err, datastore.ErrConnectivity) {
		t.Fatalf("Err = %v, want ErrConnectivity", result.Err)
	}
	if !strings.Contains(result.ErrorMessage, "unreachable") {
		t.Fatalf("ErrorMessage = %q", result.ErrorMessage)
	}
	if completer.calls() != 0 || result.Attempts != 1 || src.pings != 1 {
		t.Fatalf("calls=%d attempts=%d pings=%d, want no retry", completer.calls(), result.Attempts, src.pings)
	}
}

func TestRunAbortsOnGenerationError(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("model offline")}}

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 3}).Run(context.Background(), "q", shopCatalog(), shopSource())
	if result.Success || !errors.Is(result.Err, ErrGeneration) {
		t.Fatalf("result = %+v", result)
	}
	if completer.calls() != 1 {
		t.Fatalf("calls = %d, want 1", completer.calls())
	}
}

func TestRunRejectsEmptyQuestion(t *testing.T) {
	result := newTestLoop(&scriptedCompleter{}, LoopConfig{}).Run(context.Background(), "  ", shopCatalog(), shopSource())
	if !errors.Is(result.Err, ErrEmptyQuestion) {
		t.Fatalf("Err = %v", result.Err)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	completer := &scriptedCompleter{outputs: []string{"SELECT bogus FROM customers"}}

	result := newTestLoop(completer, LoopConfig{MaxAttempts: 0}).Run(ctx, "q", shopCatalog(), shopSource())
	if result.Success || !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("result = %+v", result)
	}
}

func TestResultJSON(t *testing.T) {
	body, err := Result{Success: true, SQL: "SELECT 1", Attempts: 1, Strategy: "tool"}.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	got := string(body)
	if got != `{"success":true,"sql_query":"SELECT 1","execution_time_seconds":0,"attempts":1,"strategy":"tool"}` {
		t.Fatalf("json = %s", got)
	}
}
