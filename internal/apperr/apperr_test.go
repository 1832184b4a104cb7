package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{NotFound("chore %d not found", 4), ErrNotFound},
		{Forbidden("nope"), ErrForbidden},
		{InvalidState("already a member"), ErrInvalidState},
		{Validation("rating out of range"), ErrValidation},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.kind) {
			t.Errorf("%v: expected errors.Is(%v)", tt.err, tt.kind)
		}
		wrapped := fmt.Errorf("record completion: %w", tt.err)
		if !errors.Is(wrapped, tt.kind) {
			t.Errorf("wrapped %v: lost classification", tt.err)
		}
	}
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("chore %d not found", 7))
	if got := Message(err, "fallback"); got != "chore 7 not found" {
		t.Errorf("Message = %q, want %q", got, "chore 7 not found")
	}
	if got := Message(errors.New("boom"), "fallback"); got != "fallback" {
		t.Errorf("Message = %q, want %q", got, "fallback")
	}
}
