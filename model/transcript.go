package model

import (
	"sync"
	"time"
)

// DefaultGreeting opens every transcript.
const DefaultGreeting = "Hi! I'm your workplace assistant. Ask me for a briefing, your priority tasks, actionable emails, follow-ups or risks."

// Transcript is the ordered, append-only log of one conversation.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates a transcript seeded with a system-authored greeting.
func NewTranscript(greeting string, at time.Time) *Transcript {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	welcome := NewMessage(RoleAssistant, SourceSystem, greeting, at)
	welcome.Intent = "greeting"
	welcome.Confidence = 1

	return &Transcript{messages: []Message{welcome}}
}

// Append adds msg to the end of the transcript and returns its index.
func (t *Transcript) Append(msg Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, msg.clone())
	return len(t.messages) - 1
}

// Len returns the number of messages, greeting included.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// At returns the message at index i.
func (t *Transcript) At(i int) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if i < 0 || i >= len(t.messages) {
		return Message{}, false
	}
	return t.messages[i].clone(), true
}

// Last returns the most recent message.
func (t *Transcript) Last() Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messages[len(t.messages)-1].clone()
}

// LastOf returns the most recent message with the given role.
func (t *Transcript) LastOf(role Role) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i].clone(), true
		}
	}
	return Message{}, false
}

// Messages returns a snapshot of the transcript in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	for i, msg := range t.messages {
		out[i] = msg.clone()
	}
	return out
}
