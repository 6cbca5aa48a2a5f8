// Package responder is the offline stand-in for the backend reasoning
// service. It maps user text to a canned, structured reply using an ordered
// keyword rule list. The first rule that matches wins.
//
// Respond is pure: no I/O, no clock, no randomness. The same text always
// yields the same reply, which keeps the dashboard assistant usable when
// the backend is down or not running during local development.
package responder

import (
	"strings"
	"time"

	"deskmate/model"
)

const (
	IntentGeneral     = "general"
	GeneralConfidence = 0.45
)

// Response is a locally produced reply.
type Response struct {
	Content     string
	Intent      string
	Confidence  float64
	Trace       []model.ReasoningStep
	Suggestions []string
}

// Message turns the response into an assistant transcript entry.
func (r Response) Message(at time.Time) model.Message {
	msg := model.NewMessage(model.RoleAssistant, model.SourceLocal, r.Content, at)
	msg.Intent = r.Intent
	msg.Confidence = r.Confidence
	msg.ReasoningTrace = r.Trace
	msg.Suggestions = r.Suggestions
	return msg
}

// Respond produces the local reply for text.
func Respond(text string) Response {
	lower := strings.ToLower(text)

	for _, r := range rules {
		if r.match(lower) {
			content, trace := r.reply(lower)
			return Response{
				Content:     content,
				Intent:      r.intent,
				Confidence:  r.confidence,
				Trace:       trace,
				Suggestions: append([]string(nil), r.suggestions...),
			}
		}
	}

	return Response{
		Content:    generalReply,
		Intent:     IntentGeneral,
		Confidence: GeneralConfidence,
		Trace: []model.ReasoningStep{
			think("Scanned the request for known workplace topics; no pattern matched."),
			observe("Falling back to a general answer that lists what I can do offline."),
		},
		Suggestions: []string{
			"Give me a briefing",
			"Show my P0 tasks",
			"What can you do?",
		},
	}
}

// Intents lists every intent tag Respond can produce, in rule order, with
// the catch-all last.
func Intents() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.intent)
	}
	return append(out, IntentGeneral)
}

// containsAny reports whether text contains any of the keywords. text must
// already be lower-cased.
func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func think(s string) model.ReasoningStep {
	return model.ReasoningStep{Type: model.StepThinking, Content: s}
}

func act(s string) model.ReasoningStep {
	return model.ReasoningStep{Type: model.StepAction, Content: s}
}

func observe(s string) model.ReasoningStep {
	return model.ReasoningStep{Type: model.StepObservation, Content: s}
}

const generalReply = `I couldn't match that to anything I can look up while offline.

Here's what I can help with right now:
- **Briefings**: "give me a summary of today"
- **Priorities**: "show my P0 tasks"
- **Email**: "which emails are actionable?"
- **Follow-ups**: "who should I nudge?"
- **Risks**: "any blockers this week?"
- **Clients**: "what's happening with Contoso?"`
