package validators

import (
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?limit=25", nil)

	got, err := ParseQueryInt(r, "limit", 50, 1, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected 25 got %d", got)
	}

	got, err = ParseQueryInt(r, "offset", 0, 0, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected default 0 got %d", got)
	}

	r = httptest.NewRequest("GET", "/products?limit=9999", nil)
	if _, err := ParseQueryInt(r, "limit", 50, 1, 200); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?min_price=49.50", nil)

	got, err := ParseQueryDecimal(r, "min_price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.String() != "49.5" {
		t.Fatalf("unexpected value %v", got)
	}

	absent, err := ParseQueryDecimal(r, "max_price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent parameter, got %v", absent)
	}

	r = httptest.NewRequest("GET", "/products?min_price=abc", nil)
	_, err = ParseQueryDecimal(r, "min_price")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryList(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?colors=Black,%20Camel,,Ivory", nil)

	got := ParseQueryList(r, "colors")
	if len(got) != 3 || got[0] != "Black" || got[1] != "Camel" || got[2] != "Ivory" {
		t.Fatalf("unexpected values %v", got)
	}

	if got := ParseQueryList(r, "sizes"); got != nil {
		t.Fatalf("expected nil for absent parameter, got %v", got)
	}
}
