// Package display renders user-facing output: styled errors, tables, and the
// token savings report. Styling is skipped when stdout is not a terminal.
package display

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	StatStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// IsTerminal returns true if stdout is a TTY.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// PrintError prints a styled error to stderr.
func PrintError(msg string) {
	if IsTerminal() {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("pare: "+msg))
	} else {
		fmt.Fprintln(os.Stderr, "pare: "+msg)
	}
}

// FormatSeparator returns a horizontal separator line.
func FormatSeparator(width int) string {
	return strings.Repeat("═", width)
}

// FormatTable formats data as a simple aligned table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder

	// Header
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%-*s", widths[i], h))
	}
	b.WriteString("\n")

	// Separator
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("─", w))
	}
	b.WriteString("\n")

	// Rows
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i < len(widths) {
				b.WriteString(fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// TierLabel maps an average savings percentage to a named efficiency tier.
func TierLabel(pct float64) string {
	switch {
	case pct >= 90:
		return "excellent"
	case pct >= 70:
		return "good"
	case pct >= 40:
		return "moderate"
	default:
		return "low"
	}
}

// ColorTier renders a tier label with a color matching its level.
func ColorTier(tier string) string {
	if !IsTerminal() {
		return tier
	}
	switch tier {
	case "excellent":
		return SuccessStyle.Render(tier)
	case "good":
		return StatStyle.Render(tier)
	case "moderate":
		return WarnStyle.Render(tier)
	default:
		return DimStyle.Render(tier)
	}
}

// ColorSavings renders a savings percentage, colored by magnitude.
func ColorSavings(pct float64) string {
	s := fmt.Sprintf("%.1f%%", pct)
	if !IsTerminal() {
		return s
	}
	switch {
	case pct >= 70:
		return SuccessStyle.Render(s)
	case pct >= 40:
		return WarnStyle.Render(s)
	default:
		return DimStyle.Render(s)
	}
}

// ColorBar renders a proportional bar of the given width. value is clamped
// to [0, max]; a zero max yields an empty bar.
func ColorBar(value, max, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 {
		if value < 0 {
			value = 0
		}
		if value > max {
			value = max
		}
		filled = value * width / max
	}
	full := strings.Repeat("█", filled)
	rest := strings.Repeat("░", width-filled)
	if !IsTerminal() {
		return full + rest
	}
	return SuccessStyle.Render(full) + DimStyle.Render(rest)
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// FormatSparkline renders values as a unicode sparkline scaled to the range
// of the input. All-equal inputs render as a flat midline.
func FormatSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		idx := len(sparkRunes) / 2
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
