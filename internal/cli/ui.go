package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
	"github.com/pixeljudge/pixeljudge/pkg/quality"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleScoreGood = lipgloss.NewStyle().Foreground(colorGreen)
	styleScoreOK   = lipgloss.NewStyle().Foreground(colorYellow)
	styleScoreBad  = lipgloss.NewStyle().Foreground(colorRed)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// =============================================================================
// Score Output
// =============================================================================

// printScore prints a labeled 0-100 score, colored by band.
func printScore(label string, score float64) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(22)
	fmt.Println(keyStyle.Render(label) + " " + scoreStyle(score).Render(fmt.Sprintf("%.0f", score)))
}

// scoreStyle picks the style for a 0-100 score.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return styleScoreGood
	case score >= 60:
		return styleScoreOK
	default:
		return styleScoreBad
	}
}

// printIssue prints a validation issue with its severity tier.
func printIssue(issue quality.Issue) {
	sev := issue.Severity
	var style lipgloss.Style
	switch sev {
	case quality.SeverityCritical, quality.SeverityHigh:
		style = styleScoreBad
	case quality.SeverityMedium:
		style = styleScoreOK
	default:
		style = styleComputed
	}
	fmt.Println("  " + style.Render(fmt.Sprintf("[%s]", sev)) + " " + StyleValue.Render(issue.Description))
	fmt.Println("  " + StyleDim.Render("        "+issue.Remedy))
}

// printStats prints run statistics on a single line.
func printStats(parts []string, cached bool) {
	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// runStatsParts appends stage timings to the given parts. Stages that were
// skipped or served from cache carry a zero duration and are left out.
func runStatsParts(info pipeline.RunInfo, parts ...string) []string {
	stages := []struct {
		name string
		d    time.Duration
	}{
		{"decode", info.Stats.DecodeTime},
		{"analyze", info.Stats.AnalyzeTime},
		{"render", info.Stats.RenderTime},
		{"compare", info.Stats.CompareTime},
	}
	for _, s := range stages {
		if s.d > 0 {
			parts = append(parts, s.name+" "+fmtDuration(s.d))
		}
	}
	return parts
}

// fmtDuration renders a stage duration at millisecond granularity.
func fmtDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	return d.Round(time.Millisecond).String()
}

// swatch renders a colored block for a hex color, falling back to the hex
// text when the terminal cannot display it.
func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}
