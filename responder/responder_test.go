package responder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskmate/model"
)

func stepTypes(trace []model.ReasoningStep) []model.StepType {
	out := make([]model.StepType, len(trace))
	for i, s := range trace {
		out[i] = s.Type
	}
	return out
}

func TestRespondRouting(t *testing.T) {
	tests := []struct {
		input  string
		intent string
	}{
		{input: "Give me a summary of today", intent: "briefing"},
		{input: "can you brief me and also help", intent: "briefing"},
		{input: "show my P0 tasks", intent: "task_query"},
		{input: "anything URGENT?", intent: "task_query"},
		{input: "which emails are actionable", intent: "email_triage"},
		{input: "who should I nudge", intent: "followup_tracking"},
		{input: "I need to follow up with the vendor", intent: "followup_tracking"},
		{input: "any blockers this week?", intent: "risk_analysis"},
		{input: "what's happening with Contoso", intent: "client_lookup"},
		{input: "status of the woodgrove deal", intent: "client_lookup"},
		{input: "how is my customer doing", intent: "client_lookup"},
		{input: "help", intent: "help"},
		{input: "What can you do?", intent: "help"},
		{input: "what should I work on next", intent: "focus_planning"},
		{input: "I want to escalate this", intent: "escalation"},
		{input: "tell me a joke", intent: IntentGeneral},
		{input: "", intent: IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.intent, Respond(tt.input).Intent)
		})
	}
}

func TestRespondFirstMatchWins(t *testing.T) {
	// briefing precedes help in the rule order
	resp := Respond("can you brief me and also help")
	assert.Equal(t, "briefing", resp.Intent)
	assert.Equal(t, briefingReply, resp.Content)

	// email precedes follow-up even though both keywords appear
	assert.Equal(t, "email_triage", Respond("nudge them by email").Intent)
}

func TestRespondPriorityTasks(t *testing.T) {
	resp := Respond("show my P0 tasks")

	assert.Equal(t, "task_query", resp.Intent)
	assert.InDelta(t, 0.92, resp.Confidence, 1e-9)
	assert.Equal(t,
		[]model.StepType{model.StepThinking, model.StepAction, model.StepObservation},
		stepTypes(resp.Trace))
}

func TestRespondGeneral(t *testing.T) {
	resp := Respond("tell me a joke")

	assert.Equal(t, IntentGeneral, resp.Intent)
	assert.Equal(t, GeneralConfidence, resp.Confidence)
	assert.Equal(t, []model.StepType{model.StepThinking, model.StepObservation}, stepTypes(resp.Trace))
	assert.Contains(t, resp.Trace[0].Content, "no pattern matched")
}

func TestRespondWellFormed(t *testing.T) {
	inputs := []string{
		"", "   ", "brief", "p0", "email", "nudge", "risk", "client", "contoso",
		"help", "focus", "escalate", "random words", "日本語のテキスト", strings.Repeat("x", 10000),
	}

	for _, in := range inputs {
		resp := Respond(in)
		assert.NotEmpty(t, resp.Content, in)
		assert.Contains(t, Intents(), resp.Intent, in)
		assert.GreaterOrEqual(t, resp.Confidence, 0.0, in)
		assert.LessOrEqual(t, resp.Confidence, 1.0, in)
		assert.GreaterOrEqual(t, len(resp.Trace), 2, in)
		assert.LessOrEqual(t, len(resp.Trace), 4, in)
		assert.Equal(t, model.StepThinking, resp.Trace[0].Type, in)
		assert.LessOrEqual(t, len(resp.Suggestions), 3, in)
	}
}

func TestRespondDeterministic(t *testing.T) {
	for _, in := range []string{"show my P0 tasks", "contso client update", "hello"} {
		assert.Equal(t, Respond(in), Respond(in))
	}
}

func TestRespondTraceNotShared(t *testing.T) {
	first := Respond("show my P0 tasks")
	first.Trace[0].Content = "mutated"

	assert.NotEqual(t, "mutated", Respond("show my P0 tasks").Trace[0].Content)
}

func TestIntents(t *testing.T) {
	intents := Intents()
	require.Len(t, intents, len(rules)+1)
	assert.Equal(t, "briefing", intents[0])
	assert.Equal(t, IntentGeneral, intents[len(intents)-1])
}

func TestResolveClient(t *testing.T) {
	tests := []struct {
		input  string
		expect string
		found  bool
	}{
		{input: "update on fabrikam", expect: "Fabrikam", found: true},
		{input: "adventure works onboarding", expect: "Adventure Works", found: true},
		{input: "client contso status", expect: "Contoso", found: true},
		{input: "customer northwnd", expect: "Northwind", found: true},
		{input: "my client", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, ok := resolveClient(tt.input)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expect, c.Name)
			}
		})
	}
}

func TestClientReply(t *testing.T) {
	resp := Respond("client contso status")
	assert.Equal(t, "client_lookup", resp.Intent)
	assert.Contains(t, resp.Content, "**Contoso**")

	resp = Respond("how are my clients")
	assert.Equal(t, "client_lookup", resp.Intent)
	assert.Contains(t, resp.Content, "Which client?")
}

func TestResponseMessage(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	msg := Respond("show my P0 tasks").Message(at)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, model.SourceLocal, msg.Source)
	assert.Equal(t, at, msg.Timestamp)
	assert.Equal(t, "task_query", msg.Intent)
	assert.Len(t, msg.ReasoningTrace, 3)
}
