package stripe

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected *pkgerrors.Error, got %v", err)
	}
	if typed.Code() != want {
		t.Fatalf("expected code %s got %s", want, typed.Code())
	}
}

func TestMapStripeErrorByStatusAndType(t *testing.T) {
	t.Parallel()

	client := &Client{environment: testEnv}

	cases := []struct {
		name string
		err  *stripe.Error
		want pkgerrors.Code
	}{
		{
			name: "bad api key",
			err:  &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized},
			want: pkgerrors.CodeUnauthorized,
		},
		{
			name: "unknown session",
			err:  &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusNotFound},
			want: pkgerrors.CodeNotFound,
		},
		{
			name: "malformed params",
			err:  &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest},
			want: pkgerrors.CodeValidation,
		},
		{
			name: "stripe outage",
			err:  &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError},
			want: pkgerrors.CodeDependency,
		},
		{
			name: "card declined",
			err:  &stripe.Error{Type: stripe.ErrorTypeCard, HTTPStatusCode: http.StatusPaymentRequired},
			want: pkgerrors.CodePayment,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assertCode(t, client.mapStripeError(tc.err, "create checkout session"), tc.want)
		})
	}
}

func TestMapStripeErrorWrapsTransportFailures(t *testing.T) {
	t.Parallel()

	client := &Client{environment: testEnv}
	cause := errors.New("connection reset")

	err := client.mapStripeError(fmt.Errorf("post: %w", cause), "retrieve checkout session")
	assertCode(t, err, pkgerrors.CodeDependency)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestNormalizeEnvDefaultsToTest(t *testing.T) {
	t.Parallel()

	env, err := normalizeEnv("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env != testEnv {
		t.Fatalf("expected %q got %q", testEnv, env)
	}

	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestValidateAPIKeyMatchesEnvironment(t *testing.T) {
	t.Parallel()

	if err := validateAPIKey(testEnv, "sk_test_abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateAPIKey(liveEnv, "sk_test_abc"); err == nil {
		t.Fatal("expected live environment to reject test key")
	}
	if err := validateAPIKey(testEnv, "sk_live_abc"); err == nil {
		t.Fatal("expected test environment to reject live key")
	}
}
