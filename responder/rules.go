package responder

import (
	"fmt"

	"deskmate/model"
)

// rule pairs a keyword predicate with a reply template. Order matters:
// rules are checked top to bottom and the first match wins, so broader
// categories sit below the more specific ones they would otherwise shadow.
type rule struct {
	intent      string
	confidence  float64
	match       func(lower string) bool
	reply       func(lower string) (string, []model.ReasoningStep)
	suggestions []string
}

var rules = []rule{
	{
		intent:     "briefing",
		confidence: 0.95,
		match: func(s string) bool {
			return containsAny(s, "brief", "summary", "summarize", "summarise", "overview", "recap", "digest")
		},
		reply: fixed(briefingReply,
			think("User wants a consolidated view of their day."),
			act("Collected open tasks, unread actionable email, today's meetings and pending follow-ups."),
			observe("Grouped the items by urgency and highlighted the ones due today."),
		),
		suggestions: []string{"Focus on tasks only", "Any critical issues?", "Who should I nudge?"},
	},
	{
		intent:     "task_query",
		confidence: 0.92,
		match: func(s string) bool {
			return containsAny(s, "p0", "p1", "urgent", "priority", "critical", "task")
		},
		reply: fixed(priorityReply,
			think("User is asking about high-priority work."),
			act("Filtered tasks by priority P0/P1 and sorted by due date."),
			observe("Found the top items that need attention first."),
		),
		suggestions: []string{"Plan my day", "Any blockers?", "What about my meetings today?"},
	},
	{
		intent:     "email_triage",
		confidence: 0.89,
		match: func(s string) bool {
			return containsAny(s, "actionable", "email", "inbox", "mail")
		},
		reply: fixed(emailReply,
			think("User wants to know which emails need action."),
			act("Scanned the inbox for direct asks, deadlines and unanswered threads."),
			observe("Separated actionable emails from FYI traffic."),
		),
		suggestions: []string{"Draft replies", "Who should I nudge?", "Show my P0 tasks"},
	},
	{
		intent:     "followup_tracking",
		confidence: 0.88,
		match: func(s string) bool {
			return containsAny(s, "follow up", "follow-up", "followup", "nudge", "waiting on")
		},
		reply: fixed(followupReply,
			think("User wants to chase outstanding responses."),
			act("Looked for sent threads and delegated tasks with no reply past their SLA."),
			observe("Drafted nudges ordered by how long each item has been waiting."),
		),
		suggestions: []string{"Send the nudges", "Any blockers?", "Give me a briefing"},
	},
	{
		intent:     "risk_analysis",
		confidence: 0.87,
		match: func(s string) bool {
			return containsAny(s, "risk", "blocker", "blocked", "overdue", "slipping")
		},
		reply: fixed(riskReply,
			think("User is looking for things that could go wrong."),
			act("Checked tasks past due or blocked on other people."),
			act("Cross-referenced meetings and threads that mention delays."),
			observe("Ranked the risks by impact and time to deadline."),
		),
		suggestions: []string{"Escalate the top risk", "Who should I nudge?", "Plan my day"},
	},
	{
		intent:     "client_lookup",
		confidence: 0.85,
		match: func(s string) bool {
			if containsAny(s, "client", "customer", "account") {
				return true
			}
			_, ok := clientMentioned(s)
			return ok
		},
		reply:       clientReply,
		suggestions: []string{"Any risks with this client?", "Show related emails", "Draft a status update"},
	},
	{
		intent:     "help",
		confidence: 0.99,
		match: func(s string) bool {
			return containsAny(s, "help", "what can you do", "capabilities")
		},
		reply: fixed(helpReply,
			think("User wants to know what the assistant can do."),
			observe("Listed the supported request types."),
		),
		suggestions: []string{"Give me a briefing", "Show my P0 tasks", "Any blockers?"},
	},
	{
		intent:     "focus_planning",
		confidence: 0.86,
		match: func(s string) bool {
			return containsAny(s, "focus", "prioritize", "prioritise", "what should i", "plan my day", "deep work")
		},
		reply: fixed(focusReply,
			think("User needs help deciding what to work on next."),
			act("Weighed due dates, priority and free calendar blocks."),
			observe("Built a short ordered plan with a protected focus block."),
		),
		suggestions: []string{"Block focus time", "Show my P0 tasks", "Any meetings I can skip?"},
	},
	{
		intent:     "escalation",
		confidence: 0.84,
		match: func(s string) bool {
			return containsAny(s, "escalat", "leadership", "raise this")
		},
		reply: fixed(escalationReply,
			think("User wants to escalate an issue."),
			act("Gathered the facts, owners and deadlines for the issue."),
			observe("Prepared an escalation outline for the right audience."),
		),
		suggestions: []string{"Draft the escalation email", "Any other risks?", "Give me a briefing"},
	},
}

func fixed(content string, trace ...model.ReasoningStep) func(string) (string, []model.ReasoningStep) {
	return func(string) (string, []model.ReasoningStep) {
		return content, append([]model.ReasoningStep(nil), trace...)
	}
}

func clientReply(lower string) (string, []model.ReasoningStep) {
	c, ok := resolveClient(lower)
	if !ok {
		return clientListReply(), []model.ReasoningStep{
			think("User asked about a client but did not name one I know."),
			act("Listed the client directory."),
			observe("Asked the user to pick a client."),
		}
	}

	content := fmt.Sprintf(`**%s** (%s)

- **Owner:** %s
- **Status:** %s
- **Next step:** %s

_Offline snapshot. Live account data returns when the backend is reachable._`,
		c.Name, c.Tier, c.Owner, c.Status, c.NextStep)

	return content, []model.ReasoningStep{
		think(fmt.Sprintf("User is asking about %s.", c.Name)),
		act("Looked up the client in the local directory."),
		observe(fmt.Sprintf("Found %s with status: %s.", c.Name, c.Status)),
	}
}

const briefingReply = `**Your briefing**

**Today**
- 2 P0 tasks due before end of day
- 3 actionable emails waiting for your reply
- 4 meetings, the first at 10:00

**Watch**
- 1 follow-up is past its expected reply date
- The Contoso renewal is flagged at risk

_Generated offline from cached dashboard data._`

const priorityReply = `**Priority tasks**

| Priority | Task | Due |
|---|---|---|
| P0 | Finalize the Contoso renewal proposal | Today |
| P0 | Fix the failing release pipeline | Today |
| P1 | Review Q3 budget draft | Tomorrow |

Start with the P0 items; both are due today.`

const emailReply = `**Actionable emails**

1. **Contract redlines**: legal needs your sign-off today.
2. **Budget review invite**: confirm or propose a new time.
3. **Customer escalation**: Fabrikam is asking for an ETA.

Everything else in your inbox is FYI.`

const followupReply = `**Follow-ups to send**

- **Vendor quote**: no reply for 5 days. Suggested nudge: "Any update on the revised quote?"
- **Design review feedback**: waiting 3 days on the platform team.
- **Offer letter approval**: waiting 2 days on HR.`

const riskReply = `**Risks and blockers**

1. **High**: the Contoso renewal depends on legal review that hasn't started.
2. **Medium**: the release pipeline has failed twice; the P0 fix is unassigned.
3. **Low**: two follow-ups are overdue, which may delay the budget review.

Consider escalating item 1 today.`

const helpReply = `**I can help with:**

- **Briefings**: a summary of your day
- **Priority tasks**: P0/P1 items and due dates
- **Email triage**: which emails need action
- **Follow-ups**: who to nudge and what to say
- **Risks**: blockers and overdue work
- **Clients**: status for a named client
- **Focus**: what to work on next
- **Escalations**: how to raise an issue`

const focusReply = `**Suggested plan**

1. 09:00–10:00 focus block on the Contoso renewal proposal (P0)
2. 10:00 stand-up
3. 10:30 fix the release pipeline (P0)
4. Afternoon: reply to actionable emails, then send follow-ups

Protect the first block; it covers your most urgent deliverable.`

const escalationReply = `**Escalation outline**

- **Issue:** what is blocked and since when
- **Impact:** who and what is affected, with dates
- **Ask:** the decision or help you need
- **Owner:** who should act, and by when

Send it to your manager first, then loop in the stakeholder who owns the blocker.`
