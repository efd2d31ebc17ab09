package rules

import (
	"strings"
	"testing"
)

func TestParseTOMLFull(t *testing.T) {
	data := `
command = "git push"
strip_ansi = true
dedup = true
dedup_window = 4
skip = ['^remote:']

[[replace]]
pattern = '^warning: (.*)$'
output = "W {1}"

[[match_output]]
contains = "up-to-date"
output = "ok"

[[section]]
name = "fails"
enter = '^FAILURES$'
exit = '^=+$'
collect_as = "failures"

[on_success]
output = "ok ✓ {output}"

[on_success.aggregate]
from = "failures"
pattern = '(\d+)'
sum = "total"
count_as = "n"

[on_failure]
tail = 10
skip = ['^hint:']

[fallback]
tail = 20
`
	rs, err := Parse([]byte(data), "push.toml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if rs.Command.First() != "git push" {
		t.Errorf("command = %q", rs.Command.First())
	}
	if !rs.StripANSI || !rs.Dedup || rs.DedupWindow != 4 {
		t.Errorf("flags: strip_ansi=%v dedup=%v window=%d", rs.StripANSI, rs.Dedup, rs.DedupWindow)
	}
	if len(rs.Skip) != 1 || rs.Skip[0] != "^remote:" {
		t.Errorf("skip = %v", rs.Skip)
	}
	if len(rs.Replace) != 1 || rs.Replace[0].Output != "W {1}" {
		t.Errorf("replace = %+v", rs.Replace)
	}
	if len(rs.MatchOutput) != 1 || rs.MatchOutput[0].Contains != "up-to-date" {
		t.Errorf("match_output = %+v", rs.MatchOutput)
	}
	if len(rs.Sections) != 1 || rs.Sections[0].Key() != "failures" {
		t.Errorf("sections = %+v", rs.Sections)
	}
	if rs.OnSuccess == nil || rs.OnSuccess.Output == nil || *rs.OnSuccess.Output != "ok ✓ {output}" {
		t.Fatalf("on_success = %+v", rs.OnSuccess)
	}
	agg := rs.OnSuccess.Aggregate
	if agg == nil || agg.From != "failures" || agg.Sum != "total" || agg.CountAs != "n" {
		t.Errorf("aggregate = %+v", agg)
	}
	if rs.OnFailure == nil || rs.OnFailure.Tail == nil || *rs.OnFailure.Tail != 10 {
		t.Errorf("on_failure = %+v", rs.OnFailure)
	}
	if rs.Fallback == nil || rs.Fallback.Tail == nil || *rs.Fallback.Tail != 20 {
		t.Errorf("fallback = %+v", rs.Fallback)
	}
}

func TestParseCommandList(t *testing.T) {
	rs, err := Parse([]byte(`command = ["pnpm test", "npm test"]`), "test.toml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	got := rs.Command.Patterns()
	if len(got) != 2 || got[0] != "pnpm test" || got[1] != "npm test" {
		t.Errorf("patterns = %v", got)
	}
	if rs.Command.First() != "pnpm test" {
		t.Errorf("first = %q", rs.Command.First())
	}
}

func TestParseYAML(t *testing.T) {
	data := `
command: go test
strip_ansi: true
skip:
  - '^=== RUN'
on_failure:
  tail: 15
`
	rs, err := Parse([]byte(data), "test.yaml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if rs.Command.First() != "go test" {
		t.Errorf("command = %q", rs.Command.First())
	}
	if !rs.StripANSI || len(rs.Skip) != 1 {
		t.Errorf("strip_ansi=%v skip=%v", rs.StripANSI, rs.Skip)
	}
	if rs.OnFailure == nil || rs.OnFailure.Tail == nil || *rs.OnFailure.Tail != 15 {
		t.Errorf("on_failure = %+v", rs.OnFailure)
	}
}

func TestParseParseSpec(t *testing.T) {
	data := `
command = "git status"

[parse.branch]
line = 1
pattern = '^## (\S+)'

[parse.group.key]
pattern = '^(..)'

[parse.group.labels]
"??" = "untracked"

[output]
format = "{branch}"
empty = "clean"
`
	rs, err := Parse([]byte(data), "status.toml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if rs.Parse == nil || rs.Parse.Branch == nil || rs.Parse.Branch.Line != 1 {
		t.Fatalf("parse spec = %+v", rs.Parse)
	}
	if rs.Parse.Group == nil || rs.Parse.Group.Labels["??"] != "untracked" {
		t.Errorf("group = %+v", rs.Parse.Group)
	}
	if rs.Output == nil || rs.Output.Empty != "clean" {
		t.Errorf("output = %+v", rs.Output)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing command", `skip = ['x']`, "missing 'command'"},
		{"empty command", `command = ""`, "empty 'command'"},
		{"empty command list", `command = []`, "empty 'command' list"},
		{"non-string list item", `command = ["ok", 3]`, "must contain only strings"},
		{"wrong type", `command = 42`, "must be a string or list"},
		{"invalid toml", `command = "x"` + "\nnot valid [[[", "parse rule file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.toml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestSectionKeyDefaultsToName(t *testing.T) {
	s := Section{Name: "warns"}
	if s.Key() != "warns" {
		t.Errorf("Key() = %q", s.Key())
	}
	s.CollectAs = "warnings"
	if s.Key() != "warnings" {
		t.Errorf("Key() = %q", s.Key())
	}
}
