package pitch

import (
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Entries()) != 12 {
		t.Fatalf("expected 12 catalog entries, got %d", len(c.Entries()))
	}
	if k, ok := c.KindFor("beat_sheet"); !ok || k != KindSequence {
		t.Fatalf("beat_sheet kind = %q %v", k, ok)
	}
	if k, ok := c.KindFor("custom_budget-notes"); !ok || k != KindCustom {
		t.Fatalf("custom key kind = %q %v", k, ok)
	}
	if _, ok := c.KindFor("Budget Notes"); ok {
		t.Fatalf("malformed key should not resolve")
	}
}

func TestParseCatalogRejects(t *testing.T) {
	cases := map[string]string{
		"missing key":   "sections:\n  - title: x\n    kind: text\n",
		"bad kind":      "sections:\n  - key: a\n    kind: poem\n",
		"custom kind":   "sections:\n  - key: a\n    kind: custom\n",
		"custom prefix": "sections:\n  - key: custom_a\n    kind: text\n",
		"duplicate":     "sections:\n  - key: a\n    kind: text\n  - key: a\n    kind: text\n",
	}
	for name, raw := range cases {
		if _, err := ParseCatalog([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestIsCustomKey(t *testing.T) {
	for key, want := range map[string]bool{
		"custom_budget_notes": true,
		"custom_1":            true,
		"custom_":             false,
		"custom_Budget":       false,
		"vision":              false,
		"custom_../etc":       false,
	} {
		if got := IsCustomKey(key); got != want {
			t.Fatalf("IsCustomKey(%q) = %v", key, got)
		}
	}
}

func TestContentKindFor(t *testing.T) {
	if k, ext, ok := ContentKindFor("image/jpeg; charset=binary"); !ok || k != ContentImage || ext != ".jpg" {
		t.Fatalf("jpeg: %q %q %v", k, ext, ok)
	}
	if k, _, ok := ContentKindFor("application/pdf"); !ok || k != ContentDocument {
		t.Fatalf("pdf: %q %v", k, ok)
	}
	if _, _, ok := ContentKindFor("application/x-msdownload"); ok {
		t.Fatalf("executables must be rejected")
	}
}

func TestSectionKeys(t *testing.T) {
	k := NewCustomKey()
	if !IsCustomKey(k) || !IsSectionKey(k) {
		t.Fatalf("minted key %q is not a valid custom key", k)
	}
	for _, bad := range []string{"", "Vision", "has space", "-lead", strings.Repeat("a", 71)} {
		if IsSectionKey(bad) {
			t.Fatalf("IsSectionKey(%q) should be false", bad)
		}
	}
	if !IsSectionKey("legacy_notes") {
		t.Fatalf("legacy key should be accepted")
	}
}
