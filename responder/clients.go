package responder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Client is an entry in the offline client directory.
type Client struct {
	Name     string
	Tier     string
	Owner    string
	Status   string
	NextStep string
}

var clients = []Client{
	{Name: "Contoso", Tier: "Strategic", Owner: "Dana Whitfield", Status: "Renewal at risk, legal review pending", NextStep: "Send the revised proposal by Friday"},
	{Name: "Fabrikam", Tier: "Enterprise", Owner: "Luis Ortega", Status: "Waiting on delivery ETA", NextStep: "Reply to the escalation email today"},
	{Name: "Northwind", Tier: "Growth", Owner: "Priya Raman", Status: "Healthy, expansion discussion scheduled", NextStep: "Prepare the expansion deck"},
	{Name: "Adventure Works", Tier: "Enterprise", Owner: "Sam Keller", Status: "Onboarding in progress", NextStep: "Confirm the kickoff agenda"},
	{Name: "Tailspin Toys", Tier: "Growth", Owner: "Mei Chen", Status: "Quarterly review due", NextStep: "Book the QBR"},
	{Name: "Woodgrove Bank", Tier: "Strategic", Owner: "Omar Haddad", Status: "Security questionnaire outstanding", NextStep: "Chase the security team for answers"},
}

// minFuzzyWord keeps short common words from fuzzy-matching client names.
const minFuzzyWord = 5

// clientMentioned finds a client whose name appears verbatim in lower.
func clientMentioned(lower string) (Client, bool) {
	for _, c := range clients {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c, true
		}
		// First word alone is enough for multi-word names ("woodgrove").
		if first, _, found := strings.Cut(strings.ToLower(c.Name), " "); found && strings.Contains(lower, first) {
			return c, true
		}
	}
	return Client{}, false
}

// resolveClient finds the client the text refers to, tolerating typos.
func resolveClient(lower string) (Client, bool) {
	if c, ok := clientMentioned(lower); ok {
		return c, true
	}

	names := make([]string, len(clients))
	for i, c := range clients {
		names[i] = strings.ToLower(c.Name)
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	best := fuzzy.Match{Score: -1 << 31}
	found := false
	for _, w := range words {
		if len(w) < minFuzzyWord || isGenericClientWord(w) {
			continue
		}
		matches := fuzzy.Find(w, names)
		if len(matches) > 0 && matches[0].Score > best.Score {
			best = matches[0]
			found = true
		}
	}
	if !found {
		return Client{}, false
	}
	return clients[best.Index], true
}

func isGenericClientWord(w string) bool {
	switch w {
	case "client", "clients", "customer", "customers", "account", "accounts":
		return true
	}
	return false
}

func clientListReply() string {
	var b strings.Builder
	b.WriteString("**Which client?** I know about:\n\n")
	for _, c := range clients {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", c.Name, c.Tier, c.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}
