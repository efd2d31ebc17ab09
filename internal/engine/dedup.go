package engine

// applyDedup collapses duplicate lines. window == 0 drops lines equal to
// the immediately preceding output line; window > 0 drops lines equal to
// any of the last window emitted lines. Order is otherwise preserved, and
// duplicates outside the window survive.
func applyDedup(lines []string, window int) []string {
	if window <= 0 {
		return dedupConsecutive(lines)
	}
	return dedupWindowed(lines, window)
}

func dedupConsecutive(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(out) > 0 && out[len(out)-1] == line {
			continue
		}
		out = append(out, line)
	}
	return out
}

func dedupWindowed(lines []string, window int) []string {
	out := make([]string, 0, len(lines))
	// Ring of the last `window` emitted lines.
	recent := make([]string, 0, window)
	for _, line := range lines {
		if contains(recent, line) {
			continue
		}
		out = append(out, line)
		if len(recent) == window {
			recent = recent[1:]
		}
		recent = append(recent, line)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
