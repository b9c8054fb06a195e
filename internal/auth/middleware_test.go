package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticAPIKeyValidatorParsing(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:alice:sql_generator|viewer, k2:bob:viewer")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	identity, ok := validator.Validate(context.Background(), "k1")
	if !ok {
		t.Fatal("expected key to be valid")
	}
	if identity.Principal != "alice" {
		t.Fatalf("Principal = %q", identity.Principal)
	}
	if !identity.HasRole(RoleSQLGenerator) || !identity.HasRole("viewer") {
		t.Fatalf("roles = %v", identity.Roles)
	}
	bob, ok := validator.Validate(context.Background(), "k2")
	if !ok || bob.HasRole(RoleSQLGenerator) {
		t.Fatalf("bob = %+v, ok=%v", bob, ok)
	}
	if _, ok := validator.Validate(context.Background(), "k3"); ok {
		t.Fatal("unknown key should be rejected")
	}
}

func TestStaticAPIKeyValidatorRejectsBadSpec(t *testing.T) {
	for _, spec := range []string{"invalid", "k1::sql_generator", "k1:alice:|", "k1:a:r,k1:b:r"} {
		if _, err := NewStaticAPIKeyValidator(spec); err == nil {
			t.Fatalf("expected parse error for %q", spec)
		}
	}
}

func TestMiddlewareRequiresKey(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:alice:sql_generator")
	if err != nil {
		t.Fatalf("validator setup: %v", err)
	}

	mw := Middleware(slog.New(slog.NewJSONHandler(io.Discard, nil)), validator)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, header := range []string{"", "Basic abc", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("Authorization %q status = %d, want %d", header, rr.Code, http.StatusUnauthorized)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error_code"] != "UNAUTHORIZED" {
			t.Fatalf("error_code = %v", body["error_code"])
		}
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:alice:sql_generator")
	if err != nil {
		t.Fatalf("validator setup: %v", err)
	}

	mw := Middleware(nil, validator)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		if identity.Principal != "alice" {
			t.Fatalf("Principal = %q", identity.Principal)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("X-API-Key", "k1") },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer k1") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
		set(req)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rr.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	if err := RequireRole(context.Background(), RoleSQLGenerator); err != nil {
		t.Fatalf("anonymous RequireRole() error = %v", err)
	}
	ctx := WithIdentity(context.Background(), Identity{Principal: "bob", Roles: []string{"viewer"}})
	if err := RequireRole(ctx, RoleSQLGenerator); err == nil {
		t.Fatal("expected missing role error")
	}
	ctx = WithIdentity(context.Background(), Identity{Principal: "alice", Roles: []string{RoleSQLGenerator}})
	if err := RequireRole(ctx, RoleSQLGenerator); err != nil {
		t.Fatalf("RequireRole() error = %v", err)
	}
}
