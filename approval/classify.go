// Package approval classifies task content for sensitive actions and
// enforces the human-approval checkpoint in front of them.
package approval

import (
	"strings"

	"github.com/jordanfowler/dossier/task"
)

// rule pairs one keyword with the action family and risk it implies.
// The table is deliberately closed and heuristic: false negatives are
// expected and compensated for by the explicit requires_approval flag.
type rule struct {
	keyword string
	action  task.Action
	risk    task.Risk
}

var rules = []rule{
	// make-payment
	{"transfer funds", task.ActionMakePayment, task.RiskHigh},
	{"charge card", task.ActionMakePayment, task.RiskHigh},
	{"invoice", task.ActionMakePayment, task.RiskHigh},
	{"payment", task.ActionMakePayment, task.RiskHigh},
	{"refund", task.ActionMakePayment, task.RiskHigh},

	// delete-data
	{"delete", task.ActionDeleteData, task.RiskHigh},
	{"drop", task.ActionDeleteData, task.RiskHigh},
	{"purge", task.ActionDeleteData, task.RiskHigh},
	{"truncate", task.ActionDeleteData, task.RiskHigh},

	// post-publicly
	{"publish", task.ActionPostPublicly, task.RiskHigh},
	{"tweet", task.ActionPostPublicly, task.RiskHigh},
	{"post to", task.ActionPostPublicly, task.RiskHigh},

	// send-message
	{"send", task.ActionSendMessage, task.RiskMedium},
	{"notify", task.ActionSendMessage, task.RiskMedium},
	{"email", task.ActionSendMessage, task.RiskMedium},
}

func riskRank(r task.Risk) int {
	switch r {
	case task.RiskHigh:
		return 3
	case task.RiskMedium:
		return 2
	case task.RiskLow:
		return 1
	}
	return 0
}

// Classify scans free text for sensitive-action keywords. Matching is
// case-insensitive substring matching over the closed rule table; when
// multiple families match, the highest risk wins. The boolean is false
// when nothing matched.
func Classify(content string) (task.Action, task.Risk, bool) {
	lower := strings.ToLower(content)
	var (
		action task.Action
		risk   task.Risk
		found  bool
	)
	for _, r := range rules {
		if !strings.Contains(lower, r.keyword) {
			continue
		}
		if !found || riskRank(r.risk) > riskRank(risk) {
			action, risk = r.action, r.risk
		}
		found = true
	}
	return action, risk, found
}
