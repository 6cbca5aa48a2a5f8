package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StepType classifies a reasoning step for display.
type StepType string

const (
	StepThinking    StepType = "thinking"
	StepAction      StepType = "action"
	StepObservation StepType = "observation"
)

// Source records which path produced a message.
type Source string

const (
	SourceUser   Source = "user"
	SourceSystem Source = "system"
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// ReasoningStep is one annotation in a reasoning trace. It never drives
// control flow.
type ReasoningStep struct {
	Type    StepType `json:"type"`
	Content string   `json:"content"`
}

// Message is a single transcript entry. Values are created once and never
// mutated after they are appended to a Transcript.
type Message struct {
	ID             string          `json:"id"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	Timestamp      time.Time       `json:"timestamp"`
	ReasoningTrace []ReasoningStep `json:"reasoning_trace,omitempty"`
	Intent         string          `json:"intent,omitempty"`
	Confidence     float64         `json:"confidence,omitempty"`
	Source         Source          `json:"source"`
	Suggestions    []string        `json:"suggestions,omitempty"`
}

// NewMessage creates a message with a fresh time-ordered ID.
func NewMessage(role Role, source Source, content string, at time.Time) Message {
	return Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: at,
		Source:    source,
	}
}

// HasTrace reports whether the message carries reasoning metadata.
func (m Message) HasTrace() bool {
	return len(m.ReasoningTrace) > 0
}

// clone returns a copy that shares no slices with m.
func (m Message) clone() Message {
	if m.ReasoningTrace != nil {
		m.ReasoningTrace = append([]ReasoningStep(nil), m.ReasoningTrace...)
	}
	if m.Suggestions != nil {
		m.Suggestions = append([]string(nil), m.Suggestions...)
	}
	return m
}

func newMessageID() string {
	// v7 IDs sort by creation time; fall back to v4 if the clock source fails.
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
