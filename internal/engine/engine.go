package engine

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/parecli/pare/internal/rules"
)

// CommandResult is the captured outcome of the wrapped command: its exit
// code and the merged stdout/stderr text, trailing-whitespace trimmed.
type CommandResult struct {
	ExitCode int
	Combined string
}

// Result is the engine's output for one invocation.
type Result struct {
	Output string
}

// ScriptRunner executes a rule's script escape hatch against the filtered
// output. It returns the replacement text and whether the script chose to
// override the pipeline.
type ScriptRunner interface {
	Run(spec *rules.ScriptSpec, output string, exitCode int, args []string) (string, bool, error)
}

// Engine applies a RuleSet to a CommandResult. It is stateless apart from
// the shared regex cache and safe for concurrent use.
type Engine struct {
	regexes *RegexCache
	scripts ScriptRunner
	log     zerolog.Logger
}

// New returns an Engine using the given regex cache. scripts may be nil,
// which disables the script escape hatch.
func New(regexes *RegexCache, scripts ScriptRunner, log zerolog.Logger) *Engine {
	return &Engine{regexes: regexes, scripts: scripts, log: log}
}

// Apply runs the full pipeline. It never fails: every input, however
// degenerate, resolves to some output string.
func (e *Engine) Apply(rs *rules.RuleSet, res CommandResult, args []string) Result {
	// Match-output rules fire on the raw combined text and short-circuit
	// everything else.
	if rule := findMatchingRule(rs.MatchOutput, res.Combined); rule != nil {
		out := renderTemplate(e.regexes, rule.Output, map[string]string{"output": res.Combined}, nil)
		return e.finish(rs, out)
	}

	raw := applyLineCleanup(rs, applyReplace(e.regexes, rs.Replace, splitLines(res.Combined)))

	filtered := applyKeep(e.regexes, rs.Keep, applySkip(e.regexes, rs.Skip, raw))
	if rs.Dedup {
		filtered = applyDedup(filtered, rs.DedupWindow)
	}
	preFiltered := strings.Join(filtered, "\n")

	if rs.Script != nil && e.scripts != nil {
		out, override, err := e.scripts.Run(rs.Script, preFiltered, res.ExitCode, args)
		if err != nil {
			e.log.Warn().Err(err).Msg("script failed, continuing pipeline")
		} else if override {
			return e.finish(rs, out)
		}
	}

	if rs.Parse != nil {
		return e.finish(rs, runParse(e.regexes, rs.Parse, rs.Output, filtered))
	}

	sections := collectSections(e.regexes, rs.Sections, splitLines(res.Combined))

	if branch := selectBranch(rs, res.ExitCode); branch != nil {
		if out, ok := e.applyBranch(rs, branch, raw, preFiltered, sections); ok {
			return e.finish(rs, out)
		}
	} else if rs.Extract != nil {
		return e.finish(rs, applyExtract(e.regexes, rs.Extract, filtered))
	}

	return e.finish(rs, applyFallback(rs, filtered, preFiltered))
}

func (e *Engine) finish(rs *rules.RuleSet, out string) Result {
	return Result{Output: postProcess(rs, out)}
}

// selectBranch picks the success branch on exit 0 and the failure branch
// otherwise. A missing branch means fall through to the fallback.
func selectBranch(rs *rules.RuleSet, exitCode int) *rules.OutputBranch {
	if exitCode == 0 {
		return rs.OnSuccess
	}
	return rs.OnFailure
}

// applyBranch runs the selected branch. The second return is false when a
// template over configured sections has nothing to show and the caller
// should fall back instead.
func (e *Engine) applyBranch(rs *rules.RuleSet, branch *rules.OutputBranch, raw []string, preFiltered string, sections SectionMap) (string, bool) {
	var aggVars map[string]string
	if branch.Aggregate != nil {
		aggVars = runAggregate(e.regexes, branch.Aggregate, sections)
	}

	if branch.Output != nil {
		if len(rs.Sections) > 0 && !sections.AnyContent() && len(aggVars) == 0 {
			return "", false
		}
		vars := map[string]string{"output": preFiltered}
		for name, value := range aggVars {
			vars[name] = value
		}
		return renderTemplate(e.regexes, *branch.Output, vars, sections), true
	}

	lines := raw
	if branch.Tail != nil {
		lines = tailLines(lines, *branch.Tail)
	}
	if branch.Head != nil {
		lines = headLines(lines, *branch.Head)
	}
	lines = applySkip(e.regexes, branch.Skip, lines)
	if branch.Extract != nil {
		return applyExtract(e.regexes, branch.Extract, lines), true
	}
	return strings.Join(lines, "\n"), true
}

// applyFallback returns the pre-filtered text, bounded by the fallback tail
// when one is configured.
func applyFallback(rs *rules.RuleSet, filtered []string, preFiltered string) string {
	if rs.Fallback != nil && rs.Fallback.Tail != nil {
		return strings.Join(tailLines(filtered, *rs.Fallback.Tail), "\n")
	}
	return preFiltered
}

func tailLines(lines []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}

func headLines(lines []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n >= len(lines) {
		return lines
	}
	return lines[:n]
}
