package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	hintKeyStyle = lipgloss.NewStyle().Bold(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

func renderHints(hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, hintKeyStyle.Render(h.Key)+" "+dimStyle.Render(h.Description))
	}
	return strings.Join(parts, "  ")
}

// renderList draws items with a cursor on the selected row.
func renderList(items []string, cursor int) string {
	var b strings.Builder
	for i, it := range items {
		if i == cursor {
			b.WriteString(cursorStyle.Render("> " + it))
		} else {
			b.WriteString("  " + it)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// progressBar draws done out of total as a fixed-width bar.
func progressBar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	fill := done * width / total
	return okStyle.Render(strings.Repeat("█", fill)) + dimStyle.Render(strings.Repeat("░", width-fill)) +
		fmt.Sprintf(" %d/%d", done, total)
}

func loadingView(what string) string { return dimStyle.Render(what + "...") }
