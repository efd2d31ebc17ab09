package engine

import (
	"regexp"
	"strings"

	"github.com/parecli/pare/internal/rules"
)

// ansiRe matches terminal escape sequences:
//
//	CSI: ESC [ params letter      (colors, cursor movement)
//	OSC: ESC ] ... (BEL | ESC \)  (hyperlinks, titles)
//	Fe:  ESC [@-_]                (single-char controls, catch-all)
//
// The OSC alternative must precede the [@-_] catch-all: ']' (0x5D) sits in
// that byte range and would otherwise be consumed as a bare Fe escape,
// leaving the OSC payload behind.
var ansiRe = regexp.MustCompile(`\x1b(?:\[[0-9;]*[a-zA-Z]|\][^\x07\x1b]*(?:\x07|\x1b\\)|[@-_])`)

// stripANSI removes escape sequences from a line.
func stripANSI(line string) string {
	return ansiRe.ReplaceAllString(line, "")
}

// applyLineCleanup runs the per-line cleanup stage: strip_ansi and
// trim_lines, in that order. Interior whitespace is preserved.
func applyLineCleanup(rs *rules.RuleSet, lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		s := line
		if rs.StripANSI {
			s = stripANSI(s)
		}
		if rs.TrimLines {
			s = strings.TrimSpace(s)
		}
		out[i] = s
	}
	return out
}

// postProcess applies the whole-output cleanup flags to the final string.
// strip_empty_lines removes blank and whitespace-only lines;
// collapse_empty_lines squeezes runs of them down to one. Strip wins when
// both are set. A single trailing newline survives iff the input had one.
func postProcess(rs *rules.RuleSet, output string) string {
	if rs.StripEmptyLines {
		trailing := strings.HasSuffix(output, "\n")
		kept := make([]string, 0)
		for _, line := range splitLines(output) {
			if strings.TrimSpace(line) != "" {
				kept = append(kept, line)
			}
		}
		result := strings.Join(kept, "\n")
		if result != "" && trailing {
			result += "\n"
		}
		return result
	}

	if rs.CollapseEmptyLines {
		trailing := strings.HasSuffix(output, "\n")
		var b strings.Builder
		prevEmpty := false
		first := true
		for _, line := range splitLines(output) {
			empty := strings.TrimSpace(line) == ""
			if empty && prevEmpty {
				continue
			}
			if !first {
				b.WriteByte('\n')
			}
			b.WriteString(line)
			prevEmpty = empty
			first = false
		}
		result := b.String()
		if trailing {
			result += "\n"
		}
		return result
	}

	return output
}

// splitLines splits on newlines without producing a phantom final entry for
// a trailing newline. An empty string yields no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
