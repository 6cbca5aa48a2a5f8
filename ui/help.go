package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func helpSection(heading string, bindings []key.Binding) string {
	blue := lipgloss.NewStyle().Foreground(accentColor)

	lines := []string{blue.Render(heading)}
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("• %-13s %s", h.Key, h.Desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("Deskmate - Keyboard Shortcuts")

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.NewStyle().Foreground(accentColor).Render("## Tips"),
		"• Ask for a briefing, P0 tasks or follow-ups",
		"• Offline? Answers come from local rules",
		"• Text selection works! (Mouse)",
	)

	column1 := lipgloss.JoinVertical(
		lipgloss.Left,
		helpSection("## Chat Actions", keys.chat()),
		"",
		helpSection("## Global", keys.global()),
	)

	column2 := lipgloss.JoinVertical(
		lipgloss.Left,
		helpSection("## Chat Navigation", keys.navigation()),
		"",
		tips,
	)

	columnStyle := lipgloss.NewStyle().Width(46).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"  ",
		columnStyle.Render(column2),
	)

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close this help", keys.Help.Help().Key))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2).
		Width(100)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
