package engine

import (
	"strings"
	"testing"

	"github.com/parecli/pare/internal/rules"
)

func TestCollectSectionsMarkers(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{
		{Name: "failures", Enter: `^FAILURES$`, Exit: `^=+$`, Match: `^test_`},
	}
	lines := []string{
		"running 3 tests",
		"FAILURES",
		"test_one failed",
		"note: run with backtrace",
		"test_two failed",
		"========",
		"test_ignored_outside failed",
	}
	sections := collectSections(cache, specs, lines)
	got := sections["failures"]
	want := []string{"test_one failed", "test_two failed"}
	if strings.Join(got.Lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %v, want %v", got.Lines, want)
	}
}

func TestCollectSectionsMarkerLinesConsumed(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "s", Enter: `^BEGIN$`, Exit: `^END$`}}
	lines := []string{"BEGIN", "inside", "END"}
	got := collectSections(cache, specs, lines)["s"]
	if strings.Join(got.Lines, "|") != "inside" {
		t.Errorf("lines = %v, want [inside]", got.Lines)
	}
}

func TestCollectSectionsReentry(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "s", Enter: `^>>$`, Exit: `^<<$`}}
	lines := []string{">>", "first", "<<", "between", ">>", "second", "<<"}
	got := collectSections(cache, specs, lines)["s"]
	want := []string{"first", "second"}
	if strings.Join(got.Lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %v, want %v", got.Lines, want)
	}
}

func TestCollectSectionsAlwaysActive(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "warns", Match: `^warning`}}
	lines := []string{"warning: a", "info: b", "warning: c"}
	got := collectSections(cache, specs, lines)["warns"]
	want := []string{"warning: a", "warning: c"}
	if strings.Join(got.Lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %v, want %v", got.Lines, want)
	}
}

func TestCollectSectionsNoEnterMarkerFound(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "s", Enter: `^NEVER$`, Exit: `^END$`}}
	got := collectSections(cache, specs, []string{"a", "b"})["s"]
	if len(got.Lines) != 0 || len(got.Blocks) != 0 {
		t.Errorf("expected empty section, got %v / %v", got.Lines, got.Blocks)
	}
}

func TestCollectSectionsSplitOn(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "fails", Enter: `^FAILURES$`, SplitOn: `\n\n`, Exit: `^=+$`}}
	lines := []string{"FAILURES", "first failure", "detail one", "", "second failure", "detail two", "====="}
	got := collectSections(cache, specs, lines)["fails"]
	wantBlocks := []string{"first failure\ndetail one", "second failure\ndetail two"}
	if strings.Join(got.Blocks, "#") != strings.Join(wantBlocks, "#") {
		t.Errorf("blocks = %v, want %v", got.Blocks, wantBlocks)
	}
}

func TestCollectSectionsCollectAs(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "raw name", CollectAs: "alias", Match: `.`}}
	sections := collectSections(cache, specs, []string{"x"})
	if _, ok := sections["alias"]; !ok {
		t.Fatalf("section not keyed by collect_as: %v", sections)
	}
}

func TestCollectSectionsInvalidEnterNeverActivates(t *testing.T) {
	cache := NewRegexCache()
	specs := []rules.Section{{Name: "s", Enter: `[invalid`, Exit: `^END$`}}
	got := collectSections(cache, specs, []string{"a", "b"})["s"]
	if len(got.Lines) != 0 {
		t.Errorf("invalid enter pattern collected %v", got.Lines)
	}
}

func TestSectionMapAnyContent(t *testing.T) {
	m := SectionMap{"empty": &CollectedSection{}}
	if m.AnyContent() {
		t.Error("AnyContent() = true for empty sections")
	}
	m["full"] = &CollectedSection{Lines: []string{"x"}}
	if !m.AnyContent() {
		t.Error("AnyContent() = false with collected lines")
	}
}
