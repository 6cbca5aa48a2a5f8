package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"deskmate/model"
)

const previewWidth = 100

// MessageMatch is a search hit in the transcript.
type MessageMatch struct {
	MessageID string
	Role      model.Role
	Preview   string
	Timestamp time.Time
	Score     int
}

// searchMessages fuzzy-matches query against message contents, best match
// first. Matches whose characters are spread too far apart are dropped so
// long replies do not match every short query.
func searchMessages(msgs []model.Message, query string) []MessageMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	targets := make([]string, len(msgs))
	for i, msg := range msgs {
		targets[i] = msg.Content
	}

	maxSpan := len([]rune(query)) * 3
	var results []MessageMatch
	for _, m := range fuzzy.Find(query, targets) {
		idx := m.MatchedIndexes
		if len(idx) == 0 || idx[len(idx)-1]-idx[0]+1 > maxSpan {
			continue
		}
		msg := msgs[m.Index]
		results = append(results, MessageMatch{
			MessageID: msg.ID,
			Role:      msg.Role,
			Preview:   preview(msg.Content, previewWidth),
			Timestamp: msg.Timestamp,
			Score:     m.Score,
		})
	}
	return results
}

// preview flattens content to one line and truncates it to width cells.
func preview(content string, width int) string {
	flat := strings.Join(strings.Fields(content), " ")
	if runewidth.StringWidth(flat) <= width {
		return flat
	}
	return runewidth.Truncate(flat, width, "...")
}

func (a AppView) handleMessageSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeAllModals()
		return a, nil

	case "enter":
		if len(a.messageSearchResults) == 0 {
			return a, nil
		}
		target := a.messageSearchResults[a.selectedSearchIdx].MessageID
		a.closeAllModals()

		a.highlightedMessageID = target
		a.highlightFlashCount = flashCount
		a.updateViewportContent(false)
		if offset, ok := a.messageOffsets[target]; ok {
			a.viewport.SetYOffset(offset)
		}
		return a, flashTick()

	case "down", "ctrl+j":
		if a.selectedSearchIdx < len(a.messageSearchResults)-1 {
			a.selectedSearchIdx++
		}
		if a.selectedSearchIdx >= a.messageSearchScrollIdx+visibleResults(a.height) {
			a.messageSearchScrollIdx++
		}
		return a, nil

	case "up", "ctrl+k":
		if a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
		}
		if a.selectedSearchIdx < a.messageSearchScrollIdx {
			a.messageSearchScrollIdx = a.selectedSearchIdx
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.messageSearchInput, cmd = a.messageSearchInput.Update(msg)

	a.messageSearchResults = searchMessages(a.ctrl.Transcript().Messages(), a.messageSearchInput.Value())
	a.selectedSearchIdx = 0
	a.messageSearchScrollIdx = 0

	return a, cmd
}

// visibleResults estimates how many results fit in the modal.
func visibleResults(height int) int {
	// Border(2) + Padding(2) + Title(1) + Blank(1) + SearchInput(1) + Blank(1) +
	// "Found X matches:"(1) + Blank(1) + Footer(1) + Blank(1) = 12 lines,
	// plus 4 for scroll indicators
	available := height - 16
	n := available / 4
	if n < 1 {
		n = 1
	}
	return n
}

func renderMessageSearch(searchInput textinput.Model, results []MessageMatch, selectedIdx, scrollIdx, width, height int) string {
	modalWidth := width - 4
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2)

	title := TitleStyle.Render("🔍 Search Conversation")

	resultsView := ""
	if len(results) == 0 {
		if searchInput.Value() == "" {
			resultsView = DimStyle.Render("Type to search this conversation...")
		} else {
			resultsView = DimStyle.Render("No matches found")
		}
	} else {
		startIdx := scrollIdx
		endIdx := scrollIdx + visibleResults(height)
		if endIdx > len(results) {
			endIdx = len(results)
		}

		resultsView = fmt.Sprintf("Found %d matches:\n\n", len(results))

		if startIdx > 0 {
			resultsView += DimStyle.Render(fmt.Sprintf("↑ %d more above\n\n", startIdx))
		}

		for i := startIdx; i < endIdx; i++ {
			match := results[i]

			roleStyle := UserStyle
			if match.Role == model.RoleAssistant {
				roleStyle = AssistantStyle
			}

			matchText := fmt.Sprintf("%s [%s]\n  %s",
				roleStyle.Render(roleName(match.Role)),
				match.Timestamp.Format("Jan 2, 3:04 PM"),
				match.Preview,
			)

			if i == selectedIdx {
				matchText = SelectedStyle.Render("> " + matchText)
			} else {
				matchText = "  " + matchText
			}

			resultsView += matchText + "\n\n"
		}

		if endIdx < len(results) {
			resultsView += DimStyle.Render(fmt.Sprintf("↓ %d more below", len(results)-endIdx))
		}
	}

	footer := FormatFooter("Type", "to search", "↑/↓", "Navigate", "Enter", "Jump to", "Esc", "Close")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		searchInput.View(),
		"",
		resultsView,
		"",
		footer,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		modalStyle.Width(modalWidth).Render(content))
}
