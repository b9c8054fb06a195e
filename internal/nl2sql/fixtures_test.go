package nl2sql

import (
	"context"
	"sync"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
)

func shopCatalog() catalog.Catalog {
	return catalog.New([]catalog.Table{
		{Name: "customers", Columns: []catalog.Column{
			{Name: "customer_id", DeclaredType: "int", KeyRole: catalog.KeyPrimary},
			{Name: "name", DeclaredType: "varchar(100)"},
			{Name: "email", DeclaredType: "varchar(100)"},
			{Name: "country", DeclaredType: "varchar(50)"},
			{Name: "created_at", DeclaredType: "timestamp"},
		}},
		{Name: "orders", Columns: []catalog.Column{
			{Name: "order_id", DeclaredType: "int", KeyRole: catalog.KeyPrimary},
			{Name: "customer_id", DeclaredType: "int", KeyRole: catalog.KeyForeign, References: "customers"},
			{Name: "order_date", DeclaredType: "date"},
			{Name: "total_amount", DeclaredType: "decimal(10,2)"},
			{Name: "status", DeclaredType: "varchar(20)"},
		}},
		{Name: "products", Columns: []catalog.Column{
			{Name: "product_id", DeclaredType: "int", KeyRole: catalog.KeyPrimary},
			{Name: "product_name", DeclaredType: "varchar(100)"},
			{Name: "category", DeclaredType: "varchar(50)"},
			{Name: "price", DeclaredType: "decimal(10,2)"},
		}},
		{Name: "order_items", Columns: []catalog.Column{
			{Name: "item_id", DeclaredType: "int", KeyRole: catalog.KeyPrimary},
			{Name: "order_id", DeclaredType: "int", KeyRole: catalog.KeyForeign, References: "orders"},
			{Name: "product_id", DeclaredType: "int", KeyRole: catalog.KeyForeign, References: "products"},
			{Name: "quantity", DeclaredType: "int"},
			{Name: "unit_price", DeclaredType: "decimal(10,2)"},
		}},
	})
}

type fakeSource struct {
	mu       sync.Mutex
	pingErr  error
	rows     map[string][]datastore.Row
	errs     map[string]error
	pings    int
	requests []string
}

func (f *fakeSource) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeSource) SampleRows(_ context.Context, table string, limit int) ([]datastore.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, table)
	if err := f.errs[table]; err != nil {
		return nil, err
	}
	rows := f.rows[table]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeSource) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func shopSource() *fakeSource {
	return &fakeSource{rows: map[string][]datastore.Row{
		"customers": {
			{{Column: "customer_id", Value: datastore.Number(1)}, {Column: "name", Value: datastore.Text("김철수")}, {Column: "country", Value: datastore.Text("Korea")}},
			{{Column: "customer_id", Value: datastore.Number(2)}, {Column: "name", Value: datastore.Text("John Smith")}, {Column: "country", Value: datastore.Text("USA")}},
		},
		"orders": {
			{{Column: "order_id", Value: datastore.Number(1)}, {Column: "customer_id", Value: datastore.Number(1)}, {Column: "total_amount", Value: datastore.Number(1500000)}},
		},
	}}
}

// scriptedCompleter returns outputs in order; errs take precedence per call.
type scriptedCompleter struct {
	mu       sync.Mutex
	outputs  []string
	errs     []error
	requests []CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := len(s.requests)
	s.requests = append(s.requests, req)
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if len(s.outputs) == 0 {
		return "", nil
	}
	if call >= len(s.outputs) {
		return s.outputs[len(s.outputs)-1], nil
	}
	return s.outputs[call], nil
}

func (s *scriptedCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
