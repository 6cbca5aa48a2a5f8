package assistant

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"deskmate/model"
)

const (
	DefaultIntent     = "general"
	DefaultConfidence = 0.5
)

// ErrInvalidReply marks a chat payload that cannot be shown to the user.
var ErrInvalidReply = errors.New("assistant: invalid reply")

// Reply is a validated chat reply with optional fields normalized.
type Reply struct {
	Content     string
	SessionID   string
	Intent      string
	Confidence  float64
	Trace       []model.ReasoningStep
	Suggestions []string
}

// Validate checks a decoded chat payload. The response text is required and
// is passed through verbatim; everything else falls back to neutral
// defaults. Validate never invents response text.
func Validate(raw map[string]any) (Reply, error) {
	if raw == nil {
		return Reply{}, fmt.Errorf("%w: empty payload", ErrInvalidReply)
	}

	value, ok := raw["response"]
	if !ok || value == nil {
		return Reply{}, fmt.Errorf("%w: missing response", ErrInvalidReply)
	}
	content, ok := value.(string)
	if !ok {
		return Reply{}, fmt.Errorf("%w: response is %T, not a string", ErrInvalidReply, value)
	}
	if strings.TrimSpace(content) == "" {
		return Reply{}, fmt.Errorf("%w: empty response", ErrInvalidReply)
	}

	reply := Reply{
		Content:    content,
		Intent:     DefaultIntent,
		Confidence: DefaultConfidence,
	}

	if sid, ok := raw["session_id"].(string); ok && sid != "" {
		reply.SessionID = sid
	}
	if intent, ok := raw["intent"].(string); ok && strings.TrimSpace(intent) != "" {
		reply.Intent = intent
	}
	if confidence, ok := toFloat(raw["confidence"]); ok {
		reply.Confidence = clamp01(confidence)
	}
	reply.Trace = normalizeTrace(raw["reasoning_trace"])
	reply.Suggestions = normalizeStrings(raw["followup_suggestions"])

	return reply, nil
}

// normalizeTrace coerces step-like entries into ReasoningStep values. The
// backend's agents use "step_type" with short verbs; the chat route uses
// "type" with the display names. Both are accepted.
func normalizeTrace(value any) []model.ReasoningStep {
	entries, ok := value.([]any)
	if !ok || len(entries) == 0 {
		return nil
	}

	steps := make([]model.ReasoningStep, 0, len(entries))
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				steps = append(steps, model.ReasoningStep{Type: model.StepThinking, Content: e})
			}
		case map[string]any:
			content, _ := e["content"].(string)
			if strings.TrimSpace(content) == "" {
				continue
			}
			kind, _ := e["type"].(string)
			if kind == "" {
				kind, _ = e["step_type"].(string)
			}
			steps = append(steps, model.ReasoningStep{Type: stepType(kind), Content: content})
		}
	}

	if len(steps) == 0 {
		return nil
	}
	return steps
}

func stepType(kind string) model.StepType {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "action", "act", "tool":
		return model.StepAction
	case "observation", "observe":
		return model.StepObservation
	default:
		return model.StepThinking
	}
}

func normalizeStrings(value any) []string {
	entries, ok := value.([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, entry := range entries {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
