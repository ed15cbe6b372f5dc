package envutil

import (
	"testing"
	"time"
)

func TestParsers(t *testing.T) {
	t.Setenv("PR_INT", "42")
	t.Setenv("PR_BAD_INT", "forty")
	t.Setenv("PR_BOOL", "off")
	t.Setenv("PR_DUR", "90s")
	t.Setenv("PR_DUR_SECS", "120")
	t.Setenv("PR_LIST", " a, ,b ")

	if got := Int("PR_INT", 1, nil); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("PR_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if got := Bool("PR_BOOL", true, nil); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Duration("PR_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("Duration: got=%s", got)
	}
	if got := Duration("PR_DUR_SECS", time.Second, nil); got != 2*time.Minute {
		t.Fatalf("Duration secs: got=%s", got)
	}
	if got := List("PR_LIST", nil, nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
	if got := String("PR_MISSING", "def", nil); got != "def" {
		t.Fatalf("String default: got=%q", got)
	}
}
