package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Invoice not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("no session"), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"validation", Validation("bad", map[string]string{"email": "required"}), http.StatusBadRequest},
		{"conflict", Conflict("already paid"), http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("checkout: %w", Conflict("already paid")), http.StatusConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("Client not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("did not expect ErrConflict match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("smtp down")
	err := Wrap(KindInternal, "send failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
}
