package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"

	"deskmate/model"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

var stepLabels = map[model.StepType]string{
	model.StepThinking:    "think",
	model.StepAction:      "act",
	model.StepObservation: "observe",
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	var content strings.Builder
	offsets := make(map[string]int)

	for _, msg := range a.ctrl.Transcript().Messages() {
		offsets[msg.ID] = strings.Count(content.String(), "\n")

		highlightPrefix := ""
		if msg.ID == a.highlightedMessageID && a.highlightFlashCount%2 == 1 {
			highlightPrefix = HighlightStyle.Render(">>> ")
		}

		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		if msg.Role == model.RoleUser {
			content.WriteString(formatUserMessage(highlightPrefix, timestamp, UserStyle.Render("You"), msg.Content))
			continue
		}

		body, ok := a.rendered[msg.ID]
		if !ok {
			body = msg.Content
		}

		content.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, timestamp, AssistantStyle.Render("Assistant"), formatMeta(msg)))
		if a.showTraces && msg.HasTrace() {
			content.WriteString(formatTrace(msg.ReasoningTrace))
		}
		content.WriteString(strings.TrimRight(body, "\n"))
		content.WriteString("\n")
		if len(msg.Suggestions) > 0 {
			content.WriteString(DimStyle.Render("Try: " + strings.Join(msg.Suggestions, " · ")))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	if a.waiting {
		timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
		content.WriteString(fmt.Sprintf("%s %s\n%s Thinking...\n\n", timestamp, AssistantStyle.Render("Assistant"), a.loadingSpinner.View()))
	}

	a.messageOffsets = offsets
	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// formatMeta renders the dim "intent · confidence" tag after the role. The
// greeting carries no tag.
func formatMeta(msg model.Message) string {
	if msg.Source == model.SourceSystem || msg.Intent == "" {
		return ""
	}
	return DimStyle.Render(fmt.Sprintf("%s · %.0f%%", msg.Intent, msg.Confidence*100))
}

func formatTrace(steps []model.ReasoningStep) string {
	var b strings.Builder
	for i, step := range steps {
		label := stepLabels[step.Type]
		if label == "" {
			label = string(step.Type)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			DimStyle.Render(fmt.Sprintf("  %d.", i+1)),
			TraceLabelStyle.Render(fmt.Sprintf("%-7s", label)),
			DimStyle.Render(step.Content)))
	}
	return b.String()
}

func formatUserMessage(highlightPrefix, timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, bar, timestamp, role))

	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}

	result.WriteString("\n")

	return result.String()
}

// rerenderAll drops cached markdown when the width changed and renders every
// assistant message again.
func (a *AppView) rerenderAll() tea.Cmd {
	if a.renderedWidth == a.width {
		return nil
	}
	a.renderedWidth = a.width
	a.rendered = map[string]string{}

	var cmds []tea.Cmd
	for _, msg := range a.ctrl.Transcript().Messages() {
		if msg.Role == model.RoleAssistant {
			cmds = append(cmds, a.renderMarkdownAsync(msg.ID, msg.Content))
		}
	}
	return tea.Batch(cmds...)
}

func (a AppView) renderMarkdownAsync(messageID, content string) tea.Cmd {
	width := a.width
	log := a.log
	return func() tea.Msg {
		start := time.Now()
		rendered := renderMarkdown(content, width)
		log.Debug("markdown rendered",
			zap.String("message_id", messageID),
			zap.Int("chars", len(content)),
			zap.Duration("elapsed", time.Since(start)))

		return markdownRenderedMsg{
			MessageID: messageID,
			Width:     width,
			Rendered:  rendered,
		}
	}
}

// renderMarkdown renders content for a terminal of the given width. Autolink
// stays off so URLs remain plain text the terminal can detect.
func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	content = mdLinkRegex.ReplaceAllString(content, "$2")

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	return postProcessMarkdown(string(rendered))
}

func postProcessMarkdown(rendered string) string {
	// Blue background + italic inline code becomes red text
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")

	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		// ┃ prefixes code block lines
		if !strings.Contains(line, "┃") {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}
