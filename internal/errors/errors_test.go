package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		kind    Kind
		message string
	}{
		{"NotFound", NotFound("draw not found"), ErrNotFound, "draw not found"},
		{"NotFoundf", NotFoundf("draw %d not found", 1100), ErrNotFound, "draw 1100 not found"},
		{"Validation", Validation("bad range"), ErrValidation, "bad range"},
		{"Validationf", Validationf("from %d > to %d", 9, 3), ErrValidation, "from 9 > to 3"},
		{"Conflict", Conflict("job running"), ErrConflict, "job running"},
		{"Conflictf", Conflictf("job %d running", 4), ErrConflict, "job 4 running"},
		{"InvalidInput", InvalidInput("bad number"), ErrInvalidInput, "bad number"},
		{"InvalidInputf", InvalidInputf("bad number %q", "x"), ErrInvalidInput, `bad number "x"`},
		{"Unavailable", Unavailable("no draws"), ErrUnavailable, "no draws"},
		{"Internalf", Internalf("code %d", 7), ErrInternal, "code 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
			if tt.err.Err != nil {
				t.Errorf("Err = %v, want nil", tt.err.Err)
			}
			if tt.err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.message)
			}
		})
	}
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)

	if err.Kind != ErrInternal {
		t.Errorf("Kind = %v, want ErrInternal", err.Kind)
	}
	if err.Error() != "internal error: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrUnavailable, "draw source")

	if err.Kind != ErrUnavailable {
		t.Errorf("Kind = %v, want ErrUnavailable", err.Kind)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if err.Error() != "draw source: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIs_MatchesSentinelByKindAndMessage(t *testing.T) {
	sentinel := Conflict("simulation already running")
	wrapped := fmt.Errorf("start: %w", Conflict("simulation already running"))

	if !errors.Is(wrapped, sentinel) {
		t.Error("expected equal kind and message to match")
	}
	if errors.Is(wrapped, Conflict("other")) {
		t.Error("different message must not match")
	}
	if errors.Is(wrapped, NotFound("simulation already running")) {
		t.Error("different kind must not match")
	}
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("missing"))

	var appErr *Error
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to succeed")
	}
	if appErr.Kind != ErrNotFound {
		t.Errorf("Kind = %v, want ErrNotFound", appErr.Kind)
	}

	if errors.As(errors.New("plain"), &appErr) {
		t.Error("errors.As should fail for a plain error")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", Validation("x"), ErrValidation},
		{"wrapped", fmt.Errorf("ctx: %w", Unavailable("x")), ErrUnavailable},
		{"plain", errors.New("x"), ErrInternal},
		{"nil", nil, ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		ErrInternal:     "internal",
		ErrNotFound:     "not_found",
		ErrValidation:   "validation",
		ErrConflict:     "conflict",
		ErrInvalidInput: "invalid_input",
		ErrUnavailable:  "unavailable",
		Kind(99):        "internal",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), k.String(), s)
		}
	}
}
