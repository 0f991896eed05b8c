package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("store %s", "abc"), KindNotFound},
		{"forbidden", Forbidden("no role"), KindForbidden},
		{"conflict", Conflict("last owner"), KindConflict},
		{"validation", Validation("empty name"), KindValidation},
		{"internal", Internal("tx", errors.New("disk full")), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil-ish wrap", fmt.Errorf("outer: %w", Conflict("inner")), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("accept invitation: %w", Forbidden("email mismatch"))
	if !Is(err, KindForbidden) {
		t.Error("expected forbidden through wrap chain")
	}
	if Is(err, KindConflict) {
		t.Error("did not expect conflict")
	}
	if Is(nil, KindInternal) {
		t.Error("nil error should not match any kind")
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("write snapshot", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause in wrap chain")
	}
	if got := err.Error(); got != "write snapshot: disk full" {
		t.Errorf("Error() = %q", got)
	}
}
