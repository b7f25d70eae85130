// Package cli renders terminal output for the kaikei commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the theme's accent (vermilion).
	PrimaryColor = lipgloss.Color("#E2583E")
	// SuccessColor marks posted entries and completed work.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks items held for review.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failures.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor marks neutral notices.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor is for secondary text.
	SubtleColor = lipgloss.Color("#666666")

	borderColor = lipgloss.Color("#333")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// Message styles, one per color above.
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle frames summaries such as an import result.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)

	// TableHeaderStyle underlines the header row of RenderTable.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(borderColor)

	// TableCellStyle pads each cell of RenderTable.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons prefixed by the Format helpers.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "·"
	LedgerIcon  = "📒"
)

func iconLine(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess renders message with the success icon.
func FormatSuccess(message string) string { return iconLine(SuccessStyle, SuccessIcon, message) }

// FormatError renders message with the error icon.
func FormatError(message string) string { return iconLine(ErrorStyle, ErrorIcon, message) }

// FormatWarning renders message with the warning icon.
func FormatWarning(message string) string { return iconLine(WarningStyle, WarningIcon, message) }

// FormatInfo renders message with the info icon.
func FormatInfo(message string) string { return iconLine(InfoStyle, InfoIcon, message) }

// RenderBox renders content in a bordered box under a title.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// RenderTable lays rows out in aligned columns under a bordered header.
// Column widths follow the display width, so full-width text lines up.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, renderRow(headers, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}

// StyleTitle, StyleSuccess and StyleWarning color text without an icon.
func StyleTitle(text string) string   { return TitleStyle.Render(text) }
func StyleSuccess(text string) string { return SuccessStyle.Render(text) }
func StyleWarning(text string) string { return WarningStyle.Render(text) }
