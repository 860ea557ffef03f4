package mapping

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestDefaultRules(t *testing.T) {
	rules := Default()

	if got := rules.MapStatus("continuing", "completed"); got != "watching" {
		t.Errorf("continuing should map to watching, got %q", got)
	}
	if got := rules.MapStatus("ended", "completed"); got != "completed" {
		t.Errorf("ended should fall back to default, got %q", got)
	}
	if got := rules.MapStatus("something-else", "plan_to_watch"); got != "plan_to_watch" {
		t.Errorf("unknown status should fall back to default, got %q", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got := rules.MapStatus("continuing", "completed"); got != "watching" {
		t.Errorf("defaults missing after load: %q", got)
	}
}

func TestLoadStatusMapAndOverrides(t *testing.T) {
	path := writeRules(t, `
status_map:
  ended: dropped
overrides:
  - title: "Frieren: Beyond Journey's End Season 2"
    mal_id: 52991
    status: completed
`)

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := rules.MapStatus("Ended", "completed"); got != "dropped" {
		t.Errorf("status_map entry ignored, got %q", got)
	}

	// The pin must match through normalization.
	rule, ok := rules.Override("Frieren: Beyond Journey's End")
	if !ok {
		t.Fatal("expected override to resolve for normalized title")
	}
	if rule.MALID != 52991 || rule.Status != "completed" {
		t.Fatalf("unexpected override %+v", rule)
	}
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	path := writeRules(t, `
status_map:
  continuing: binging
overrides:
  - title: ""
    mal_id: 1
  - title: "Valid Show"
    mal_id: 0
  - title: "Kept Show"
    mal_id: 99
`)

	rules, err := Load(path)
	if err == nil {
		t.Fatal("expected an error reporting skipped entries")
	}

	if got := rules.MapStatus("continuing", "completed"); got != "watching" {
		t.Errorf("invalid status_map value should keep default, got %q", got)
	}
	if _, ok := rules.Override("Valid Show"); ok {
		t.Error("override with mal_id 0 should be skipped")
	}
	if _, ok := rules.Override("Kept Show"); !ok {
		t.Error("valid override should survive invalid siblings")
	}
}
