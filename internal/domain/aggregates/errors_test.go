package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := Conflict("policy.create", "active policy exists")
	outer := Wrap(CodeDependency, "outer", fmt.Errorf("ctx: %w", inner))
	if !IsCode(outer, CodeConflict) {
		t.Fatalf("expected conflict code to survive, got=%q", CodeOf(outer))
	}
}

func TestErrorString(t *testing.T) {
	err := Validation("composer.save", "title is required")
	if got := err.Error(); got != "composer.save: title is required (validation)" {
		t.Fatalf("Error(): got=%q", got)
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	cause := errors.New("disk full")
	dep := Dependency("media.put", cause)
	if !errors.Is(dep, cause) {
		t.Fatalf("dependency error should unwrap to cause")
	}
}
