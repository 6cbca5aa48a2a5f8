package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"deskmate/conversation"
	"deskmate/model"
)

const flashCount = 6

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Title (1) + separator (1) + textarea (3) + status bar (1)
		a.viewport.Width = a.width
		a.viewport.Height = a.height - 6
		a.textarea.SetWidth(a.width)
		a.ready = true

		cmd = a.rerenderAll()
		a.updateViewportContent(true)
		return a, cmd

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		a.updateViewportContent(true)
		return a, cmd

	case replyMsg:
		a.waiting = false
		a.log.Debug("reply received",
			zap.String("message_id", msg.Reply.ID),
			zap.String("source", string(msg.Reply.Source)),
			zap.String("mode", msg.Mode.String()))
		a.updateViewportContent(true)
		return a, a.renderMarkdownAsync(msg.Reply.ID, msg.Reply.Content)

	case markdownRenderedMsg:
		// Stale render from before a resize
		if msg.Width != a.width {
			return a, nil
		}
		a.rendered[msg.MessageID] = msg.Rendered
		a.updateViewportContent(a.viewport.AtBottom())
		return a, nil

	case flashTickMsg:
		if a.highlightFlashCount <= 0 {
			a.highlightedMessageID = ""
			a.updateViewportContent(false)
			return a, nil
		}
		a.highlightFlashCount--
		a.updateViewportContent(false)
		return a, flashTick()

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			a.log.Debug("quit requested")
			return a, tea.Quit
		}

		if a.showHelp {
			if key.Matches(msg, keys.Help) || msg.String() == "esc" {
				a.showHelp = false
			}
			return a, nil
		}

		if a.showMessageSearch {
			return a.handleMessageSearch(msg)
		}

		if key.Matches(msg, keys.Send) {
			return a.submit()
		}

		switch {
		case key.Matches(msg, keys.Help):
			a.showHelp = true
			return a, nil

		case key.Matches(msg, keys.ToggleTrace):
			a.showTraces = !a.showTraces
			a.updateViewportContent(false)
			return a, nil

		case key.Matches(msg, keys.Search):
			a.showMessageSearch = true
			a.textarea.Blur()
			a.messageSearchInput.SetValue("")
			a.messageSearchResults = nil
			a.selectedSearchIdx = 0
			a.messageSearchScrollIdx = 0
			a.messageSearchInput.Focus()
			return a, textinput.Blink

		case key.Matches(msg, keys.CopyLast):
			last, ok := a.ctrl.Transcript().LastOf(model.RoleAssistant)
			if !ok {
				return a, nil
			}
			cmd = a.copyToClipboard(last.Content, "Copied last reply")
			return a, cmd

		case key.Matches(msg, keys.CopyAll):
			cmd = a.copyToClipboard(transcriptText(a.ctrl.Transcript().Messages()), "Copied conversation")
			return a, cmd

		case key.Matches(msg, keys.HalfPageDown):
			a.viewport.HalfPageDown()
			return a, nil

		case key.Matches(msg, keys.HalfPageUp):
			a.viewport.HalfPageUp()
			return a, nil

		case key.Matches(msg, keys.PageDown):
			a.viewport.PageDown()
			return a, nil

		case key.Matches(msg, keys.PageUp):
			a.viewport.PageUp()
			return a, nil

		case key.Matches(msg, keys.Top):
			a.viewport.GotoTop()
			return a, nil

		case key.Matches(msg, keys.Bottom):
			a.viewport.GotoBottom()
			return a, nil
		}
	}

	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// submit echoes the user message right away and completes the turn in a
// command. Blank input and input sent while a reply is pending are ignored;
// the latter stays in the textarea.
func (a AppView) submit() (tea.Model, tea.Cmd) {
	text := a.textarea.Value()

	turn, err := a.ctrl.Begin(text)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		a.textarea.Reset()
		return a, nil
	case errors.Is(err, conversation.ErrBusy):
		return a, nil
	case err != nil:
		a.log.Error("submit failed", zap.Error(err))
		return a, nil
	}

	a.textarea.Reset()
	a.waiting = true
	a.loadingSpinner = newLoadingSpinner()
	a.updateViewportContent(true)

	return a, tea.Batch(
		completeTurn(a.ctrl, turn),
		a.loadingSpinner.Tick,
	)
}

func completeTurn(ctrl *conversation.Controller, turn *conversation.Turn) tea.Cmd {
	return func() tea.Msg {
		reply := ctrl.Complete(context.Background(), turn)
		return replyMsg{Reply: reply, Mode: ctrl.Mode()}
	}
}

func (a *AppView) copyToClipboard(text, done string) tea.Cmd {
	if err := writeClipboard(text); err != nil {
		a.log.Warn("clipboard write failed", zap.Error(err))
		return a.flashStatus("Clipboard unavailable")
	}
	return a.flashStatus(done)
}

func (a *AppView) flashStatus(text string) tea.Cmd {
	a.statusSeq++
	a.status = text
	seq := a.statusSeq
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

func flashTick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
		return flashTickMsg{}
	})
}

// transcriptText formats the whole conversation as plain text.
func transcriptText(msgs []model.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n",
			msg.Timestamp.Format("15:04"),
			roleName(msg.Role),
			msg.Content))
	}
	return b.String()
}

func roleName(r model.Role) string {
	if r == model.RoleUser {
		return "You"
	}
	return "Assistant"
}
