package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"deskmate/conversation"
)

type AppView struct {
	ctrl      *conversation.Controller
	userEmail string
	log       *zap.Logger

	// UI Components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Waiting for the assistant reply of the current turn
	waiting        bool
	loadingSpinner spinner.Model

	// Rendered markdown by message ID, valid for renderedWidth
	rendered      map[string]string
	renderedWidth int

	// Line offset of each message in the viewport content
	messageOffsets map[string]int

	showTraces bool
	showHelp   bool

	showMessageSearch      bool
	messageSearchInput     textinput.Model
	messageSearchResults   []MessageMatch
	selectedSearchIdx      int
	messageSearchScrollIdx int

	highlightedMessageID string
	highlightFlashCount  int

	// Transient status line text (e.g. "Copied")
	status    string
	statusSeq int
}

// NewAppView builds the conversation view around ctrl. userEmail is shown in
// the title bar.
func NewAppView(ctrl *conversation.Controller, userEmail string, log *zap.Logger) AppView {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about your tasks, inbox, follow-ups or clients..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone is handled by Update
	ta.KeyMap.InsertNewline = keys.Newline

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	messageSearchInput := textinput.New()
	messageSearchInput.Prompt = "Search: "
	messageSearchInput.CharLimit = 100

	return AppView{
		ctrl:               ctrl,
		userEmail:          userEmail,
		log:                log.Named("ui"),
		viewport:           viewport.New(0, 0),
		textarea:           ta,
		loadingSpinner:     newLoadingSpinner(),
		rendered:           map[string]string{},
		messageOffsets:     map[string]int{},
		messageSearchInput: messageSearchInput,
	}
}

func newLoadingSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	return s
}

func (a AppView) Init() tea.Cmd {
	// Markdown waits for WindowSizeMsg to know the width
	return textarea.Blink
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading Deskmate..."
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	if a.showMessageSearch {
		return renderMessageSearch(a.messageSearchInput, a.messageSearchResults, a.selectedSearchIdx, a.messageSearchScrollIdx, a.width, a.height)
	}

	title := AssistantStyle.Render("Deskmate") +
		TitleStyle.Render(fmt.Sprintf(" - %s", a.userEmail)) +
		DimStyle.Render(" | ") +
		renderMode(a.ctrl.Mode())
	if a.showTraces {
		title += DimStyle.Render(" | reasoning shown")
	}

	statusBar := a.status
	if statusBar == "" {
		descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
		statusBar = fmt.Sprintf("Alt+Q %s  Alt+T %s  Alt+F %s  Alt+Y %s  Alt+Enter %s  Enter %s  Alt+H %s",
			descStyle.Render("Quit"),
			descStyle.Render("Reasoning"),
			descStyle.Render("Search"),
			descStyle.Render("Copy"),
			descStyle.Render("New Line"),
			descStyle.Render("Send"),
			descStyle.Render("Help"),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		a.viewport.View(),
		a.textarea.View(),
		StatusStyle.Render(statusBar),
	)
}

func renderMode(m conversation.Mode) string {
	if m == conversation.ModeDegraded {
		return DegradedStyle.Render("● offline, answering locally")
	}
	return LiveStyle.Render("● live")
}

func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showMessageSearch = false
	if a.messageSearchInput.Focused() {
		a.messageSearchInput.Blur()
	}
	a.textarea.Focus()
}
