package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidErr("bad", nil), http.StatusBadRequest},
		{NotFoundErr("missing"), http.StatusNotFound},
		{ConflictErr("dup"), http.StatusConflict},
		{TooManyErr("slow down"), http.StatusTooManyRequests},
		{Wrap(errors.New("db")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("ctx: %w", NotFoundErr("missing")), http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessageHidesInternalError(t *testing.T) {
	err := Wrap(errors.New("connection refused 10.0.0.3:9042"))
	if got := PublicMessage(err); got != defaultPublicMsg {
		t.Errorf("expected generic message, got %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Errorf("expected Unwrap to expose the internal error")
	}
	if got := PublicMessage(InvalidErr("Nom requis", nil)); got != "Nom requis" {
		t.Errorf("unexpected public message %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Errorf("Wrap(nil) must be nil")
	}
}
