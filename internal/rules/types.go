package rules

import "encoding/json"

// RuleSet is one parsed rule file: the declarative description of how to
// compress a command's output. Immutable once loaded.
type RuleSet struct {
	// Command is resolved by the loader from the file's `command` key,
	// which may be a single pattern string or a list of alternatives.
	Command CommandPattern `toml:"-" yaml:"-"`

	// Run overrides the command actually executed. `{args}` interpolates
	// the trailing arguments, shell-escaped.
	Run string `toml:"run" yaml:"run"`

	// Skip drops lines matching any pattern, before sections and branches.
	Skip []string `toml:"skip" yaml:"skip"`

	// Keep retains only lines matching at least one pattern.
	Keep []string `toml:"keep" yaml:"keep"`

	// Extract pulls a single value out of the output.
	Extract *ExtractRule `toml:"extract" yaml:"extract"`

	// MatchOutput rules are substring checks against the whole raw output.
	// The first match wins and short-circuits everything else.
	MatchOutput []MatchOutputRule `toml:"match_output" yaml:"match_output"`

	// Sections collect lines into named groups via enter/exit markers.
	Sections []Section `toml:"section" yaml:"section"`

	// OnSuccess is taken when the command exits 0.
	OnSuccess *OutputBranch `toml:"on_success" yaml:"on_success"`

	// OnFailure is taken when the command exits non-zero.
	OnFailure *OutputBranch `toml:"on_failure" yaml:"on_failure"`

	// Parse switches to the structured parse path (status-table outputs).
	Parse *ParseSpec `toml:"parse" yaml:"parse"`

	// Output formats the structured parse result.
	Output *OutputSpec `toml:"output" yaml:"output"`

	// Fallback is the last-resort rendering when nothing else applies.
	Fallback *FallbackSpec `toml:"fallback" yaml:"fallback"`

	// Replace rules rewrite individual lines before skip/keep run.
	Replace []ReplaceRule `toml:"replace" yaml:"replace"`

	// Dedup collapses duplicate lines.
	Dedup bool `toml:"dedup" yaml:"dedup"`

	// DedupWindow widens dedup to the last N emitted lines; 0 means
	// consecutive-only.
	DedupWindow int `toml:"dedup_window" yaml:"dedup_window"`

	// StripANSI removes escape sequences before pattern matching.
	StripANSI bool `toml:"strip_ansi" yaml:"strip_ansi"`

	// TrimLines trims surrounding whitespace from each line before matching.
	TrimLines bool `toml:"trim_lines" yaml:"trim_lines"`

	// StripEmptyLines removes all blank lines from the final output.
	StripEmptyLines bool `toml:"strip_empty_lines" yaml:"strip_empty_lines"`

	// CollapseEmptyLines squeezes runs of blank lines down to one.
	CollapseEmptyLines bool `toml:"collapse_empty_lines" yaml:"collapse_empty_lines"`

	// Script is the embedded-Go escape hatch.
	Script *ScriptSpec `toml:"script" yaml:"script"`
}

// CommandPattern is either a single command pattern or a list of
// alternatives. Pattern words match command words by prefix; `*` matches any
// single word.
type CommandPattern struct {
	multi bool
	one   string
	many  []string
}

// Single returns a CommandPattern for one pattern string.
func Single(pattern string) CommandPattern {
	return CommandPattern{one: pattern}
}

// Multiple returns a CommandPattern matching any of the given alternatives.
func Multiple(patterns []string) CommandPattern {
	return CommandPattern{multi: true, many: patterns}
}

// Patterns returns all pattern strings.
func (p CommandPattern) Patterns() []string {
	if p.multi {
		return p.many
	}
	return []string{p.one}
}

// First returns the canonical (first) pattern, used for display and dedup.
func (p CommandPattern) First() string {
	if p.multi {
		if len(p.many) == 0 {
			return ""
		}
		return p.many[0]
	}
	return p.one
}

// IsZero reports whether no pattern is set.
func (p CommandPattern) IsZero() bool {
	return p.First() == ""
}

// MarshalJSON keeps the rule-file shape: a string or a list of strings.
func (p CommandPattern) MarshalJSON() ([]byte, error) {
	if p.multi {
		return json.Marshal(p.many)
	}
	return json.Marshal(p.one)
}

func (p *CommandPattern) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*p = Single(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*p = Multiple(many)
	return nil
}

// ExtractRule pulls capture groups out of a line and formats them with
// `{1}`, `{2}`, … placeholders (`{0}` is the whole match).
type ExtractRule struct {
	Pattern string `toml:"pattern" yaml:"pattern"`
	Output  string `toml:"output" yaml:"output"`
}

// ReplaceRule rewrites a matching line using `{n}` capture placeholders.
// Rules chain in declaration order: each sees the previous rule's output.
type ReplaceRule struct {
	Pattern string `toml:"pattern" yaml:"pattern"`
	Output  string `toml:"output" yaml:"output"`
}

// MatchOutputRule short-circuits the pipeline when the raw combined output
// contains a substring.
type MatchOutputRule struct {
	Contains string `toml:"contains" yaml:"contains"`
	Output   string `toml:"output" yaml:"output"`
}

// Section is a state-machine collection region over the raw output lines.
// With neither Enter nor Exit the section is always active.
type Section struct {
	Name      string `toml:"name" yaml:"name"`
	Enter     string `toml:"enter" yaml:"enter"`
	Exit      string `toml:"exit" yaml:"exit"`
	Match     string `toml:"match" yaml:"match"`
	SplitOn   string `toml:"split_on" yaml:"split_on"`
	CollectAs string `toml:"collect_as" yaml:"collect_as"`
}

// Key returns the SectionMap key: collect_as, falling back to name.
func (s Section) Key() string {
	if s.CollectAs != "" {
		return s.CollectAs
	}
	return s.Name
}

// OutputBranch is the success- or failure-specific output rule.
// Either Output renders a template, or the tail/head/skip/extract pipeline
// runs over the lines.
type OutputBranch struct {
	Output    *string        `toml:"output" yaml:"output"`
	Aggregate *AggregateRule `toml:"aggregate" yaml:"aggregate"`
	Tail      *int           `toml:"tail" yaml:"tail"`
	Head      *int           `toml:"head" yaml:"head"`
	Skip      []string       `toml:"skip" yaml:"skip"`
	Extract   *ExtractRule   `toml:"extract" yaml:"extract"`
}

// AggregateRule extracts numbers from a collected section and accumulates a
// sum and a match count under the given variable names.
type AggregateRule struct {
	From    string `toml:"from" yaml:"from"`
	Pattern string `toml:"pattern" yaml:"pattern"`
	Sum     string `toml:"sum" yaml:"sum"`
	CountAs string `toml:"count_as" yaml:"count_as"`
}

// ParseSpec is the structured parse path: an optional per-line value
// extraction plus grouping of the remaining lines by a derived key.
type ParseSpec struct {
	Branch *LineExtract `toml:"branch" yaml:"branch"`
	Group  *GroupSpec   `toml:"group" yaml:"group"`
}

// LineExtract extracts a value from one specific 1-based line number.
type LineExtract struct {
	Line    int    `toml:"line" yaml:"line"`
	Pattern string `toml:"pattern" yaml:"pattern"`
	Output  string `toml:"output" yaml:"output"`
}

// GroupSpec derives a group key from each line and optionally maps raw keys
// to human labels.
type GroupSpec struct {
	Key    ExtractRule       `toml:"key" yaml:"key"`
	Labels map[string]string `toml:"labels" yaml:"labels"`
}

// OutputSpec formats the structured parse result.
type OutputSpec struct {
	Format            string `toml:"format" yaml:"format"`
	GroupCountsFormat string `toml:"group_counts_format" yaml:"group_counts_format"`
	Empty             string `toml:"empty" yaml:"empty"`
}

// FallbackSpec bounds the pass-through output when no branch applies.
type FallbackSpec struct {
	Tail *int `toml:"tail" yaml:"tail"`
}

// ScriptSpec is the embedded-Go escape hatch. Exactly one of File or Source
// should be set; the snippet must define
// `func Filter(output string, exitCode int, args []string) (string, bool)`.
type ScriptSpec struct {
	File   string `toml:"file" yaml:"file"`
	Source string `toml:"source" yaml:"source"`
}
