package ui

import (
	"deskmate/conversation"
	"deskmate/model"
)

// replyMsg carries the assistant message produced for a submitted turn.
type replyMsg struct {
	Reply model.Message
	Mode  conversation.Mode
}

type markdownRenderedMsg struct {
	MessageID string
	Width     int
	Rendered  string
}

type flashTickMsg struct{}

type statusClearMsg struct{ seq int }
