package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindServer, Op: opExplain, Status: 500, Detail: "boom"}
	if got, want := err.Error(), "explanation failed: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindOfWrappedError(t *testing.T) {
	inner := &Error{Kind: KindTimeout, Op: opPredict, Detail: "request timed out after 30s"}
	wrapped := fmt.Errorf("refreshing comparison: %w", inner)

	if got := KindOf(wrapped); got != KindTimeout {
		t.Errorf("KindOf = %v, want KindTimeout", got)
	}
	if got := UserMessage(wrapped); got != "request timed out after 30s" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("something else")
	if got := KindOf(err); got != KindUnknown {
		t.Errorf("KindOf = %v, want KindUnknown", got)
	}
	if got := UserMessage(err); got != "something else" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Kind: KindUnreachable, Op: opHealth, Detail: "service unreachable", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
